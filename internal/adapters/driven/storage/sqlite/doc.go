// Package sqlite implements the GraphStore on SQLite. One file holds
// the whole sharing graph; relationship tables carry the idempotent
// merge-by-key contract, so re-running a scan converges instead of
// duplicating.
package sqlite
