// Package resources exposes read-only MCP resources describing the local
// slotmatch setup: the effective settings and the history of events created
// from this machine.
package resources
