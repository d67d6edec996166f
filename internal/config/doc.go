// Package config loads the slotmatch runtime configuration from the
// environment, optionally seeded from a .env file.
//
// Every value has a default suitable for demo mode: an in-memory store, no
// calendar busy lookup and the Asia/Tokyo zone. Command-line flags override
// the values returned by FromEnv.
package config
