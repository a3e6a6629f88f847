package repository

import (
	"context"
	"time"

	"github.com/iliyamo/tv-show-tracker/internal/model"
)

// WatchStatus is the watched evidence for one show: the rating given on
// the most recent watch and when it happened.
type WatchStatus struct {
	Rating    int
	WatchedAt time.Time
}

// WatchedShow pairs a show with the watch status that put it in a
// user's watched list.
type WatchedShow struct {
	Show      model.Show
	Rating    int
	WatchedAt time.Time
}

// WatchLedger is the single contract behind which both watch-state
// storage shapes live: per-user watch rows (WatchRepo, the canonical
// configuration) and a global flag embedded in the show row
// (GlobalWatchRepo, the legacy alternate). The global implementation
// accepts the username arguments and ignores them, since its state is
// shared by everyone.
//
// Semantics common to both shapes:
//   - MarkWatched validates the rating at this boundary (1..5) and
//     treats a repeat watch as "watch again": the rating is overwritten
//     and the timestamp refreshed, never a no-op.
//   - MarkUnwatched requires existing watched state and fails with
//     ErrNotWatched otherwise. The asymmetry with MarkWatched's upsert
//     is deliberate and load-bearing for the HTTP 404 on double unwatch.
//   - WatchedBy and UnwatchedBy partition the full show set for a user:
//     a show is in exactly one of the two lists.
type WatchLedger interface {
	// MarkWatched records that username watched showID with the given
	// rating, inserting or overwriting as needed. Returns the stored
	// record, or ErrInvalidRating / ErrShowNotFound.
	MarkWatched(ctx context.Context, username string, showID uint64, rating int) (*model.Watch, error)

	// MarkUnwatched clears username's watched state for showID. Returns
	// ErrShowNotFound when the show does not exist and ErrNotWatched
	// when it was never marked watched.
	MarkUnwatched(ctx context.Context, username string, showID uint64) error

	// WatchedBy returns every show username has watched together with
	// its rating and timestamp.
	WatchedBy(ctx context.Context, username string) ([]WatchedShow, error)

	// UnwatchedBy returns every show with no watched state for
	// username, computed as the set difference against all shows.
	UnwatchedBy(ctx context.Context, username string) ([]model.Show, error)

	// StatusFor returns username's watch status for one show, or nil
	// when the show is unwatched by that user. The error is reserved
	// for storage failures.
	StatusFor(ctx context.Context, username string, showID uint64) (*WatchStatus, error)

	// StatusesFor returns username's watch status for every watched
	// show keyed by show ID. Used to annotate full show listings in a
	// single query.
	StatusesFor(ctx context.Context, username string) (map[uint64]WatchStatus, error)
}

// Both storage shapes must satisfy the contract.
var (
	_ WatchLedger = (*WatchRepo)(nil)
	_ WatchLedger = (*GlobalWatchRepo)(nil)
)
