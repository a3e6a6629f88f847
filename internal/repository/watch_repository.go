package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tv-show-tracker/internal/database"
	"github.com/iliyamo/tv-show-tracker/internal/model"
)

// WatchRepo is the per-user WatchLedger implementation. Watch state
// lives in the `watches` table, one row per (username, show_id), and
// the unique index on that pair makes the mark-watched upsert a single
// atomic statement: two concurrent marks for the same pair cannot both
// insert, the loser's write turns into the update arm.
type WatchRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewWatchRepo constructs a WatchRepo. The dialect selects the upsert
// syntax, which is the one statement MySQL and SQLite disagree on.
func NewWatchRepo(db *sql.DB, dialect database.Dialect) *WatchRepo {
	return &WatchRepo{db: db, dialect: dialect}
}

// showExists checks the referenced show before touching watch state so
// callers get ErrShowNotFound rather than a silent no-op.
func (r *WatchRepo) showExists(ctx context.Context, showID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, showID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	return err
}

// MarkWatched validates the rating, verifies the show exists and then
// upserts the watch row. Re-watching overwrites the rating and resets
// watched_at to now; it never fails because a record already exists.
func (r *WatchRepo) MarkWatched(ctx context.Context, username string, showID uint64, rating int) (*model.Watch, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := r.showExists(ctx, showID); err != nil {
		return nil, err
	}

	// Single-statement conditional insert-or-update keyed on the
	// (username, show_id) unique index.
	q := `INSERT INTO watches (username, show_id, rating, watched_at) VALUES (?, ?, ?, ?)
          ON CONFLICT (username, show_id) DO UPDATE SET rating = excluded.rating, watched_at = excluded.watched_at`
	if r.dialect == database.DialectMySQL {
		q = `INSERT INTO watches (username, show_id, rating, watched_at) VALUES (?, ?, ?, ?)
             ON DUPLICATE KEY UPDATE rating = VALUES(rating), watched_at = VALUES(watched_at)`
	}
	if _, err := r.db.ExecContext(ctx, q, username, showID, rating, time.Now().UTC()); err != nil {
		return nil, err
	}

	// Read the row back so the caller sees the stored record, including
	// the generated ID on first watch.
	const sel = `SELECT id, username, show_id, rating, watched_at FROM watches WHERE username = ? AND show_id = ?`
	var w model.Watch
	if err := r.db.QueryRowContext(ctx, sel, username, showID).Scan(
		&w.ID, &w.Username, &w.ShowID, &w.Rating, &w.WatchedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// MarkUnwatched deletes the watch row for (username, showID). Unlike
// MarkWatched there is no upsert leniency: unwatching something never
// watched is ErrNotWatched.
func (r *WatchRepo) MarkUnwatched(ctx context.Context, username string, showID uint64) error {
	if err := r.showExists(ctx, showID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM watches WHERE username = ? AND show_id = ?`, username, showID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotWatched
	}
	return nil
}

// WatchedBy joins username's watch rows with their shows.
func (r *WatchRepo) WatchedBy(ctx context.Context, username string) ([]WatchedShow, error) {
	const q = `SELECT s.id, s.title, s.created_at, s.watched, s.rating, s.watched_at, w.rating, w.watched_at
               FROM watches w
               JOIN shows s ON s.id = w.show_id
               WHERE w.username = ?
               ORDER BY s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []WatchedShow
	for rows.Next() {
		var (
			ws        WatchedShow
			rating    sql.NullInt64
			watchedAt sql.NullTime
		)
		if err := rows.Scan(
			&ws.Show.ID, &ws.Show.Title, &ws.Show.CreatedAt, &ws.Show.Watched, &rating, &watchedAt,
			&ws.Rating, &ws.WatchedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UnwatchedBy returns the shows with no watch row for username. This is
// a set difference against the full show table, not a flag scan, so a
// show nobody has touched is correctly unwatched for every user.
func (r *WatchRepo) UnwatchedBy(ctx context.Context, username string) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows s
               WHERE NOT EXISTS (SELECT 1 FROM watches w WHERE w.show_id = s.id AND w.username = ?)
               ORDER BY s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// StatusFor returns username's status for one show, nil when unwatched.
func (r *WatchRepo) StatusFor(ctx context.Context, username string, showID uint64) (*WatchStatus, error) {
	const q = `SELECT rating, watched_at FROM watches WHERE username = ? AND show_id = ?`
	var st WatchStatus
	err := r.db.QueryRowContext(ctx, q, username, showID).Scan(&st.Rating, &st.WatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// StatusesFor loads username's entire watch map in one query.
func (r *WatchRepo) StatusesFor(ctx context.Context, username string) (map[uint64]WatchStatus, error) {
	const q = `SELECT show_id, rating, watched_at FROM watches WHERE username = ?`
	rows, err := r.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make(map[uint64]WatchStatus)
	for rows.Next() {
		var (
			showID uint64
			st     WatchStatus
		)
		if err := rows.Scan(&showID, &st.Rating, &st.WatchedAt); err != nil {
			return nil, err
		}
		statuses[showID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}
