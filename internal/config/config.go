package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Busy sources. BusyAuto picks ical when a feed URL is configured, google
// when OAuth client credentials are present, and none otherwise.
const (
	BusyAuto   = "auto"
	BusyNone   = "none"
	BusyICal   = "ical"
	BusyGoogle = "google"
)

const (
	DefaultTimezone      = "Asia/Tokyo"
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultRetentionDays = 7
	DefaultHistoryLimit  = 20
	DefaultCalendarID    = "primary"
	DefaultGoogleAccount = "default"
)

// Config is the process-wide configuration.
type Config struct {
	// StoreDriver is "memory" (default) or "postgres".
	StoreDriver string

	// DatabaseURL is the Postgres DSN, required for the postgres driver.
	DatabaseURL string

	// RedisURL, when set, backs the local identity and history store.
	RedisURL string

	// LocalStorePath is the JSON file used for identity and history when no
	// RedisURL is set. Empty keeps them in memory.
	LocalStorePath string

	BusySource string

	// ICalURL is the secret public iCal feed of the participant's calendar.
	ICalURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleCalendarID   string
	GoogleAccount      string
	GoogleTokenDir     string

	// Timezone is the single zone all dates and times are interpreted in.
	Timezone string

	// PollInterval is used by the polling change feed.
	PollInterval time.Duration

	RetentionDays int
	HistoryLimit  int
}

// LoadDotEnv loads variables from the given files, or .env when none are
// given. Variables already set in the environment win. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		StoreDriver:        getEnvOrDefault("SLOTMATCH_STORE", DriverMemory),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		LocalStorePath:     getEnvOrDefault("SLOTMATCH_LOCAL_STORE", ""),
		BusySource:         getEnvOrDefault("SLOTMATCH_BUSY_SOURCE", BusyAuto),
		ICalURL:            getEnvOrDefault("SLOTMATCH_ICAL_URL", ""),
		GoogleClientID:     getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnvOrDefault("GOOGLE_REDIRECT_URL", ""),
		GoogleCalendarID:   getEnvOrDefault("GOOGLE_CALENDAR_ID", DefaultCalendarID),
		GoogleAccount:      getEnvOrDefault("GOOGLE_ACCOUNT", DefaultGoogleAccount),
		GoogleTokenDir:     getEnvOrDefault("SLOTMATCH_TOKEN_DIR", ""),
		Timezone:           getEnvOrDefault("SLOTMATCH_TIMEZONE", DefaultTimezone),
		PollInterval:       getEnvDurationOrDefault("SLOTMATCH_POLL_INTERVAL", DefaultPollInterval),
		RetentionDays:      getEnvIntOrDefault("SLOTMATCH_RETENTION_DAYS", DefaultRetentionDays),
		HistoryLimit:       getEnvIntOrDefault("SLOTMATCH_HISTORY_LIMIT", DefaultHistoryLimit),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store driver %q, must be one of: memory, postgres", c.StoreDriver))
	}

	switch c.BusySource {
	case "", BusyAuto, BusyNone:
	case BusyICal:
		if c.ICalURL == "" {
			errs = append(errs, errors.New("SLOTMATCH_ICAL_URL is required for the ical busy source"))
		}
	case BusyGoogle:
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for the google busy source"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid busy source %q, must be one of: auto, none, ical, google", c.BusySource))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("retention days must be positive, got %d", c.RetentionDays))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone, defaulting to Asia/Tokyo when empty.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Retention is RetentionDays as a duration.
func (c *Config) Retention() time.Duration {
	days := c.RetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// ResolvedBusySource turns BusyAuto into a concrete source.
func (c *Config) ResolvedBusySource() string {
	switch c.BusySource {
	case BusyNone, BusyICal, BusyGoogle:
		return c.BusySource
	}
	switch {
	case c.ICalURL != "":
		return BusyICal
	case c.GoogleClientID != "" && c.GoogleClientSecret != "":
		return BusyGoogle
	default:
		return BusyNone
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("750ms") or bare milliseconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
