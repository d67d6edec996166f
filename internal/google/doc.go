// Package google provides OAuth2 authentication and token storage for the
// Google Calendar busy-time lookup.
//
// Tokens are stored per account under the user cache directory. The
// TokenProvider interface lets callers plug in a different token source.
package google
