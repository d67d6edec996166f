package busy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupRecorder struct {
	statuses []string
	sources  []string
}

func (r *lookupRecorder) RecordBusyLookup(_ context.Context, source, status string, _ time.Duration) {
	r.sources = append(r.sources, source)
	r.statuses = append(r.statuses, status)
}

type failingSource struct{}

func (failingSource) BusyTimes(context.Context, string) ([]Interval, error) {
	return nil, errors.New("calendar unavailable")
}

func TestObserve(t *testing.T) {
	rec := &lookupRecorder{}

	_, err := Observe(None{}, "none", rec).BusyTimes(context.Background(), "2026-01-15")
	require.NoError(t, err)
	_, err = Observe(failingSource{}, "google", rec).BusyTimes(context.Background(), "2026-01-15")
	require.Error(t, err)

	assert.Equal(t, []string{"none", "google"}, rec.sources)
	assert.Equal(t, []string{"success", "error"}, rec.statuses)
}

func TestObserve_NilRecorder(t *testing.T) {
	assert.Equal(t, None{}, Observe(None{}, "none", nil))
}
