// Package localstore keeps per-user state that never goes through the
// shared scheduling store: the display name a participant used for each
// event, and the list of events they recently created.
//
// State lives behind the small KV interface so the same Identity and
// History logic runs on an in-memory map, a JSON file, or Redis.
package localstore
