// Package store defines the persistence and change-feed contracts used by
// slotmatch, plus the pieces shared by every backend.
//
// Backends live in subpackages: memory for demo mode and tests, postgres for
// production. Both resolve concurrent first responses from the same
// participant through UpsertObjection, which reads the existing row and
// falls back to an update when a concurrent insert wins the uniqueness race.
//
// Changes reach readers through a Subscriber. The postgres Listener pushes
// notifications as they happen; Poller reloads at a fixed interval and diffs
// snapshots. Callers consume both through the same channel of Change values.
package store
