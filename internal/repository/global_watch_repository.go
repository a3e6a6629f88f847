package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tv-show-tracker/internal/model"
)

// GlobalWatchRepo is the legacy WatchLedger implementation where watch
// state is three columns on the show row itself, shared by all users.
// The username arguments are accepted to satisfy the contract and
// ignored. The three columns move together in single UPDATE statements
// so the row is never half-watched.
type GlobalWatchRepo struct {
	db *sql.DB
}

// NewGlobalWatchRepo constructs a GlobalWatchRepo.
func NewGlobalWatchRepo(db *sql.DB) *GlobalWatchRepo {
	return &GlobalWatchRepo{db: db}
}

// MarkWatched sets the show's watched flag, rating and timestamp in one
// statement. Re-watching overwrites both rating and timestamp.
func (r *GlobalWatchRepo) MarkWatched(ctx context.Context, username string, showID uint64, rating int) (*model.Watch, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE shows SET watched = 1, rating = ?, watched_at = ? WHERE id = ?`,
		rating, now, showID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Zero rows can mean a missing show or values identical to the
		// current ones (MySQL reports unchanged rows as unaffected), so
		// check existence before reporting not found.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, showID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		if err != nil {
			return nil, err
		}
	}
	return &model.Watch{Username: username, ShowID: showID, Rating: rating, WatchedAt: now}, nil
}

// MarkUnwatched clears all three watch columns together. A show that is
// present but unwatched yields ErrNotWatched, matching the per-user
// shape's behavior on double unwatch.
func (r *GlobalWatchRepo) MarkUnwatched(ctx context.Context, username string, showID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shows SET watched = 0, rating = NULL, watched_at = NULL WHERE id = ? AND watched = 1`,
		showID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, showID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotWatched
}

// WatchedBy returns every globally watched show. The list is the same
// for all usernames.
func (r *GlobalWatchRepo) WatchedBy(ctx context.Context, username string) ([]WatchedShow, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE watched = 1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []WatchedShow
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		ws := WatchedShow{Show: *s}
		// The invariant guarantees both fields are set when watched.
		if s.Rating != nil {
			ws.Rating = *s.Rating
		}
		if s.WatchedAt != nil {
			ws.WatchedAt = *s.WatchedAt
		}
		result = append(result, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UnwatchedBy returns every show whose global flag is unset. Here the
// flag scan is the right computation: there is no per-user relation to
// difference against.
func (r *GlobalWatchRepo) UnwatchedBy(ctx context.Context, username string) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE watched = 0 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
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

// StatusFor returns the global status for one show, nil when the show
// is unwatched or absent.
func (r *GlobalWatchRepo) StatusFor(ctx context.Context, username string, showID uint64) (*WatchStatus, error) {
	const q = `SELECT rating, watched_at FROM shows WHERE id = ? AND watched = 1`
	var st WatchStatus
	err := r.db.QueryRowContext(ctx, q, showID).Scan(&st.Rating, &st.WatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// StatusesFor returns the statuses of all globally watched shows.
func (r *GlobalWatchRepo) StatusesFor(ctx context.Context, username string) (map[uint64]WatchStatus, error) {
	const q = `SELECT id, rating, watched_at FROM shows WHERE watched = 1`
	rows, err := r.db.QueryContext(ctx, q)
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
