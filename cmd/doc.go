// Package cmd implements the command-line interface for slotmatch.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide scheduling tools for AI assistants
//   - heatmap: Print the availability heatmap and best slots of one event
//   - watch: Redraw the heatmap of one event on every change
//   - auth: Store a Google OAuth token for busy-time lookups
//   - migrate: Apply the Postgres schema
//   - cleanup: Delete events older than the retention period
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command reads its configuration from the environment, optionally
// loaded from a .env file, with flags taking precedence.
package cmd
