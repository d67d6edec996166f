// Package schedule_tools exposes group scheduling over MCP: creating events
// and candidate windows, recording participants' NG slots, and reading back
// the heatmap and the slots that work for everyone.
//
// Tools that write to the store or to the local identity are registered only
// when the server is not read-only.
package schedule_tools
