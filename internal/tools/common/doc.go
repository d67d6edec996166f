// Package common holds the helpers shared by the MCP tool packages: argument
// parsing and the instrumentation wrapper every tool handler is registered
// through.
package common
