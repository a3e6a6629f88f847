// Package queue defines message payloads exchanged over the message broker.
package queue

// Watch event actions.
const (
	ActionWatched   = "watched"
	ActionUnwatched = "unwatched"
)

// WatchEvent is published whenever watch state changes: a user marks a
// show watched (including re-watches) or unwatched. It carries enough
// information for downstream consumers to log or notify without
// querying the primary database. Rating and WatchedAt are zero on
// unwatch events.
type WatchEvent struct {
	Action    string `json:"action"`
	Username  string `json:"username"`
	ShowID    uint64 `json:"show_id"`
	Title     string `json:"title"`
	Rating    int    `json:"rating,omitempty"`
	WatchedAt string `json:"watched_at,omitempty"`
}
