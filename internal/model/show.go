package model

import "time"

// Show represents a TV show tracked by the application.  Titles are
// globally unique (case-sensitive).  The Watched, Rating and WatchedAt
// fields are only meaningful in the global watch-status configuration,
// where watch state lives directly on the show row and is shared by all
// users.  In the per-user configuration these fields stay at their zero
// values and watch state is kept in the watches table instead.
//
// Invariant: Watched == false implies Rating == nil and WatchedAt == nil;
// Watched == true implies both are set.  The three fields are always
// written together.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – unique show title.
//  CreatedAt – creation timestamp (UTC).
//  Watched   – global watched flag (global configuration only).
//  Rating    – global rating 1..5 (nil when unwatched).
//  WatchedAt – when the show was marked watched (nil when unwatched).
type Show struct {
	ID        uint64     // shows.id
	Title     string     // shows.title
	CreatedAt time.Time  // shows.created_at
	Watched   bool       // shows.watched
	Rating    *int       // shows.rating (nullable)
	WatchedAt *time.Time // shows.watched_at (nullable)
}
