package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sweeney/hvac-controller/internal/sensor"
	"github.com/sweeney/hvac-controller/internal/status"
	"github.com/sweeney/hvac-controller/internal/store"
)

// failureLogEvery limits logging during a sustained sensor outage.
const failureLogEvery = 60

// Sampler reads the sensor once per step and appends good readings to the
// store. Failed reads are logged and skipped; the store is never written with
// a placeholder value.
type Sampler struct {
	reader  sensor.Reader
	store   *store.Store
	timeout time.Duration
	tracker *status.Tracker

	mu    sync.Mutex
	stats status.SamplerStats
}

// NewSampler creates a Sampler. Each read is bounded by timeout. tracker may
// be nil.
func NewSampler(reader sensor.Reader, st *store.Store, timeout time.Duration, tracker *status.Tracker) *Sampler {
	return &Sampler{
		reader:  reader,
		store:   st,
		timeout: timeout,
		tracker: tracker,
	}
}

// Step performs one sampling cycle. The sample is stamped with now, the time
// the cycle started, not the time the read completed.
func (s *Sampler) Step(ctx context.Context, now time.Time) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	v, err := s.reader.Read(readCtx)
	cancel()
	if ctx.Err() != nil {
		// Shutting down; an interrupted read is not a sensor failure.
		return
	}
	if err == nil {
		err = sensor.Check(v)
	}

	s.mu.Lock()
	s.stats.Reads++
	if err != nil {
		s.stats.Failures++
		s.stats.ConsecutiveFailures++
		n := s.stats.ConsecutiveFailures
		s.mu.Unlock()
		if n == 1 || n%failureLogEvery == 0 {
			log.Printf("sampler: read failed (%d consecutive): %v", n, err)
		}
		s.report()
		return
	}
	if s.stats.ConsecutiveFailures > 0 {
		log.Printf("sampler: sensor recovered after %d failed reads", s.stats.ConsecutiveFailures)
		s.stats.ConsecutiveFailures = 0
	}
	s.mu.Unlock()

	s.store.Append(store.Sample{Time: now, Value: v})
	s.report()
}

// Stats returns the read counters and the current store occupancy.
func (s *Sampler) Stats() status.SamplerStats {
	s.mu.Lock()
	st := s.stats
	s.mu.Unlock()
	st.Stored = s.store.Len()
	return st
}

// Task wraps the sampler for scheduling.
func (s *Sampler) Task(period time.Duration) Task {
	return Task{Name: "sampler", Period: period, Step: s.Step}
}

func (s *Sampler) report() {
	if s.tracker != nil {
		s.tracker.UpdateSampler(s.Stats())
	}
}
