// Package postgres is the production store backend.
//
// It uses sqlx over lib/pq. Migrate installs the schema together with a
// trigger that publishes every window and objection change on the
// slotmatch_changes channel; Listener turns those notifications back into
// store.Change values for subscribers.
package postgres
