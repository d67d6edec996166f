package busy

import (
	"context"
	"time"
)

// LookupRecorder receives the outcome of every lookup made through Observe.
type LookupRecorder interface {
	RecordBusyLookup(ctx context.Context, source, status string, duration time.Duration)
}

// Observe wraps src so each BusyTimes call is reported to rec as name.
func Observe(src Source, name string, rec LookupRecorder) Source {
	if rec == nil {
		return src
	}
	return observed{next: src, name: name, rec: rec}
}

type observed struct {
	next Source
	name string
	rec  LookupRecorder
}

func (o observed) BusyTimes(ctx context.Context, date string) ([]Interval, error) {
	start := time.Now()
	out, err := o.next.BusyTimes(ctx, date)
	status := "success"
	if err != nil {
		status = "error"
	}
	o.rec.RecordBusyLookup(ctx, o.name, status, time.Since(start))
	return out, err
}
