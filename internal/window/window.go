// Package window computes statistics over the trailing time window of a
// sample store.
package window

import (
	"iter"
	"time"

	"github.com/sweeney/hvac-controller/internal/store"
)

// Spec is the trailing window over which samples are aggregated.
type Spec struct {
	Duration time.Duration
}

// Source yields the samples inside a trailing window. *store.Store satisfies it.
type Source interface {
	SnapshotSince(now time.Time, window time.Duration) iter.Seq[store.Sample]
}

// Aggregate summarises the samples found in a window.
type Aggregate struct {
	Mean   float64
	Min    float64
	Max    float64
	Count  int
	Oldest time.Time
	Newest time.Time
}

// Mean returns the arithmetic mean of the samples in [now-spec.Duration, now].
// It reports false when the window holds no samples; callers treat that as
// insufficient data, not as an error.
//
// Every sample counts equally regardless of spacing. No interpolation or
// outlier rejection is applied.
func Mean(src Source, now time.Time, spec Spec) (Aggregate, bool) {
	var (
		agg Aggregate
		sum float64
	)
	for s := range src.SnapshotSince(now, spec.Duration) {
		if agg.Count == 0 {
			agg.Min, agg.Max = s.Value, s.Value
			agg.Oldest, agg.Newest = s.Time, s.Time
		}
		agg.Min = min(agg.Min, s.Value)
		agg.Max = max(agg.Max, s.Value)
		if s.Time.Before(agg.Oldest) {
			agg.Oldest = s.Time
		}
		if s.Time.After(agg.Newest) {
			agg.Newest = s.Time
		}
		sum += s.Value
		agg.Count++
	}
	if agg.Count == 0 {
		return Aggregate{}, false
	}
	agg.Mean = sum / float64(agg.Count)
	return agg, true
}
