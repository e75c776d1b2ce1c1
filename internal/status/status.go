// Package status provides a thread-safe status tracker for the hvac-controller daemon.
// The sampling and policy tasks write to it; the heartbeat and -print-state read it.
// Nothing in here feeds back into control decisions.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/hvac-controller/internal/logic"
	"github.com/sweeney/hvac-controller/internal/window"
)

// SamplerStats counts sensor reads. This is a local type to avoid importing
// internal/task from status.
type SamplerStats struct {
	Reads               uint64
	Failures            uint64
	ConsecutiveFailures uint64
	Stored              int // samples currently held in the store
}

// Config contains daemon configuration for display.
type Config struct {
	SamplePeriodMs int64
	EvalPeriodMs   int64
	WindowMs       int64
	Capacity       int
	HeartbeatMs    int64
	Thresholds     logic.Thresholds
	Actuator       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode              logic.Mode
	LastTransition    time.Time
	Transitioned      bool
	InCooldown        bool
	Window            window.Aggregate
	WindowValid       bool
	Counts            logic.TransitionCounts
	Sampler           SamplerStats
	ActuatorConnected bool
	StartTime         time.Time
	Now               time.Time
	Config            Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      logic.ModeIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdatePolicy records the outcome of a policy evaluation.
// Called from the policy task on every evaluation.
func (t *Tracker) UpdatePolicy(state logic.State, inCooldown bool, agg window.Aggregate, valid bool, counts logic.TransitionCounts) {
	t.mu.Lock()
	t.snap.Mode = state.Mode
	t.snap.LastTransition = state.LastTransition
	t.snap.Transitioned = state.Transitioned
	t.snap.InCooldown = inCooldown
	t.snap.Window = agg
	t.snap.WindowValid = valid
	t.snap.Counts = counts
	t.mu.Unlock()
}

// UpdateSampler records sensor counters.
// Called from the sampling task on every cycle.
func (t *Tracker) UpdateSampler(stats SamplerStats) {
	t.mu.Lock()
	t.snap.Sampler = stats
	t.mu.Unlock()
}

// SetActuatorConnected sets the actuator link status (MQTT actuator only).
func (t *Tracker) SetActuatorConnected(connected bool) {
	t.mu.Lock()
	t.snap.ActuatorConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
