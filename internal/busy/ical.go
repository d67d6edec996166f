package busy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/slotmatch/slotmatch/internal/logging"
)

const (
	// DefaultICalTTL is how long a fetched feed is reused without revalidation.
	DefaultICalTTL = 10 * time.Minute

	userAgent      = "slotmatch/1.0"
	maxFeedBytes   = 10 << 20
	defaultTimeout = 15 * time.Second
)

// ICalSource reads busy times from a published iCal feed, such as the
// "secret address" of a Google calendar. Feed problems never fail a lookup:
// the last good copy is used if there is one, otherwise the result is empty.
type ICalSource struct {
	url    string
	client *http.Client
	ttl    time.Duration
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	body         []byte
	etag         string
	lastModified string
	fetchedAt    time.Time
}

// ICalOption configures an ICalSource.
type ICalOption func(*ICalSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) ICalOption {
	return func(s *ICalSource) { s.client = c }
}

// WithTTL sets the cache lifetime.
func WithTTL(ttl time.Duration) ICalOption {
	return func(s *ICalSource) { s.ttl = ttl }
}

// WithLogger sets the logger used for feed failures.
func WithLogger(l *slog.Logger) ICalOption {
	return func(s *ICalSource) { s.logger = l }
}

// WithClock replaces time.Now for cache expiry.
func WithClock(now func() time.Time) ICalOption {
	return func(s *ICalSource) { s.now = now }
}

// NewICalSource creates a source for the feed at url. An empty url yields a
// source that is never busy.
func NewICalSource(url string, loc *time.Location, opts ...ICalOption) *ICalSource {
	s := &ICalSource{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		ttl:    DefaultICalTTL,
		loc:    locOrUTC(loc),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithBackend(logging.WithOperation(s.logger, "busy.ical"), "ical")
	return s
}

// BusyTimes returns the timed events overlapping the local day, sorted by
// start.
func (s *ICalSource) BusyTimes(ctx context.Context, date string) ([]Interval, error) {
	dayStart, dayEnd, err := DayBounds(date, s.loc)
	if err != nil {
		return nil, err
	}
	if s.url == "" {
		return []Interval{}, nil
	}

	body, err := s.feed(ctx)
	if err != nil {
		s.logger.Warn("ical feed unavailable",
			slog.String("url", logging.SanitizeURL(s.url)),
			logging.Err(err))
		return []Interval{}, nil
	}

	events, err := parseFeed(body, s.loc)
	if err != nil {
		s.logger.Warn("ical feed could not be parsed",
			slog.String("url", logging.SanitizeURL(s.url)),
			logging.Err(err))
		return []Interval{}, nil
	}
	return expandBusy(events, dayStart, dayEnd, s.logger), nil
}

// feed returns the feed body, fetching or revalidating it when the cached
// copy is older than the TTL.
func (s *ICalSource) feed(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.body != nil && now.Sub(s.fetchedAt) < s.ttl {
		return s.body, nil
	}

	body, err := s.fetch(ctx)
	if err != nil {
		if s.body != nil {
			s.logger.Warn("using stale ical feed", logging.Err(err),
				slog.Duration("age", now.Sub(s.fetchedAt)))
			return s.body, nil
		}
		return nil, err
	}
	s.fetchedAt = now
	if body != nil {
		s.body = body
	}
	return s.body, nil
}

// fetch performs a conditional GET. It returns nil body with nil error when
// the server answers 304.
func (s *ICalSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/calendar")
	if s.body != nil {
		if s.etag != "" {
			req.Header.Set("If-None-Match", s.etag)
		}
		if s.lastModified != "" {
			req.Header.Set("If-Modified-Since", s.lastModified)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && s.body != nil:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if len(body) > maxFeedBytes {
		return nil, errors.New("feed exceeds size limit")
	}
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return body, nil
}
