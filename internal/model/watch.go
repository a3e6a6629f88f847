package model

import "time"

// Watch is one user's watch record for one show, as stored in the
// `watches` table.  There is at most one row per (username, show_id)
// pair; re-watching overwrites the rating and refreshes the timestamp
// in place rather than inserting a second row.
//
// Fields:
//  ID        – primary key identifier.
//  Username  – authenticated identity that watched the show.
//  ShowID    – show the record refers to.
//  Rating    – rating given on the most recent watch (1..5).
//  WatchedAt – timestamp of the most recent watch (UTC).
type Watch struct {
	ID        uint64    // watches.id
	Username  string    // watches.username
	ShowID    uint64    // watches.show_id
	Rating    int       // watches.rating
	WatchedAt time.Time // watches.watched_at
}
