// Package live keeps an in-memory view of one event current as changes
// arrive. Apply is a pure reducer over store.Change values; Watcher wires
// the initial load, a store.Subscriber and a callback together so callers
// receive a fresh Snapshot whether changes are pushed or polled.
package live
