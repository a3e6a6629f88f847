// Package repository contains data access logic for the tracker. This
// file defines the ShowRepo, which owns rows in the `shows` table and
// enforces title uniqueness. Uniqueness is checked with an explicit
// lookup before writing so the duplicate case maps cleanly onto
// ErrDuplicateTitle; the unique index on title remains as a backstop.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tv-show-tracker/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

const showColumns = `id, title, created_at, watched, rating, watched_at`

// scanShow reads one shows row into a model.Show, converting the
// nullable rating/watched_at columns to pointers.
func scanShow(row interface{ Scan(...any) error }) (*model.Show, error) {
	var (
		s         model.Show
		rating    sql.NullInt64
		watchedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.Watched, &rating, &watchedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		s.Rating = &v
	}
	if watchedAt.Valid {
		t := watchedAt.Time
		s.WatchedAt = &t
	}
	return &s, nil
}

// titleExists reports whether any show other than excludeID already
// carries the given title. Pass excludeID=0 on create. The comparison
// is case-sensitive: the title column uses a binary collation on MySQL,
// and SQLite TEXT compares byte-wise.
func (r *ShowRepo) titleExists(ctx context.Context, title string, excludeID uint64) (bool, error) {
	const q = `SELECT 1 FROM shows WHERE title = ? AND id <> ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, title, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new show and returns the stored row. It fails with
// ErrDuplicateTitle when a show with the same title already exists.
func (r *ShowRepo) Create(ctx context.Context, title string) (*model.Show, error) {
	dup, err := r.titleExists(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateTitle
	}

	const q = `INSERT INTO shows (title, created_at) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, title, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	// Fetch the freshly inserted row to populate default fields.
	return r.GetByID(ctx, uint64(id))
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns all shows ordered by creation (insertion) order. When no
// shows exist it returns an empty slice and nil error.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows ORDER BY id ASC`
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

// Rename changes a show's title. Renaming a show to its current title
// is a no-op success. Otherwise the duplicate check runs against all
// other shows before the update is applied.
func (r *ShowRepo) Rename(ctx context.Context, id uint64, newTitle string) (*model.Show, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Title == newTitle {
		return s, nil
	}
	dup, err := r.titleExists(ctx, newTitle, id)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateTitle
	}
	const q = `UPDATE shows SET title = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, newTitle, id); err != nil {
		return nil, err
	}
	s.Title = newTitle
	return s, nil
}

// Delete removes a show and every watch record referencing it. The
// cascade runs inside a transaction so a failure part-way leaves no
// dangling watch rows behind a deleted show, and no deleted watch rows
// in front of a surviving one. The store owns this cleanup; the schema
// has no cascading foreign key.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrShowNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM watches WHERE show_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
