package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Mode           string      `json:"mode"`
	InCooldown     bool        `json:"in_cooldown"`
	LastTransition string      `json:"last_transition,omitempty"`
	Window         *WindowJSON `json:"window,omitempty"`
	Sampler        SamplerJSON `json:"sampler"`
	Counts         CountsJSON  `json:"transition_counts"`
	UptimeSeconds  int64       `json:"uptime_seconds"`
	StartTime      string      `json:"start_time"`
	Timestamp      string      `json:"timestamp"`
	Config         ConfigJSON  `json:"config"`
}

// WindowJSON is the JSON representation of the windowed aggregate.
type WindowJSON struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// SamplerJSON is the JSON representation of sensor counters.
type SamplerJSON struct {
	Reads               uint64 `json:"reads"`
	Failures            uint64 `json:"failures"`
	ConsecutiveFailures uint64 `json:"consecutive_failures"`
	Stored              int    `json:"stored"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Heating int `json:"heating"`
	Cooling int `json:"cooling"`
	Idle    int `json:"idle"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SamplePeriodMs int64   `json:"sample_period_ms"`
	EvalPeriodMs   int64   `json:"eval_period_ms"`
	WindowMs       int64   `json:"window_ms"`
	Capacity       int     `json:"capacity"`
	HeartbeatMs    int64   `json:"heartbeat_ms"`
	LowSetpoint    float64 `json:"low_setpoint"`
	HighSetpoint   float64 `json:"high_setpoint"`
	HysteresisBand float64 `json:"hysteresis_band"`
	CooldownMs     int64   `json:"cooldown_ms"`
	Actuator       string  `json:"actuator"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	inner := StatusInner{
		Mode:          mode,
		InCooldown:    snap.InCooldown,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Sampler: SamplerJSON{
			Reads:               snap.Sampler.Reads,
			Failures:            snap.Sampler.Failures,
			ConsecutiveFailures: snap.Sampler.ConsecutiveFailures,
			Stored:              snap.Sampler.Stored,
		},
		Counts: CountsJSON{
			Heating: snap.Counts.Heating,
			Cooling: snap.Counts.Cooling,
			Idle:    snap.Counts.Idle,
		},
		Config: ConfigJSON{
			SamplePeriodMs: snap.Config.SamplePeriodMs,
			EvalPeriodMs:   snap.Config.EvalPeriodMs,
			WindowMs:       snap.Config.WindowMs,
			Capacity:       snap.Config.Capacity,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			LowSetpoint:    snap.Config.Thresholds.LowSetpoint,
			HighSetpoint:   snap.Config.Thresholds.HighSetpoint,
			HysteresisBand: snap.Config.Thresholds.HysteresisBand,
			CooldownMs:     snap.Config.Thresholds.Cooldown.Milliseconds(),
			Actuator:       snap.Config.Actuator,
		},
	}
	if snap.Transitioned {
		inner.LastTransition = snap.LastTransition.UTC().Format(time.RFC3339)
	}
	if snap.WindowValid {
		inner.Window = &WindowJSON{
			Mean:  snap.Window.Mean,
			Min:   snap.Window.Min,
			Max:   snap.Window.Max,
			Count: snap.Window.Count,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status used by -print-state.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatLine returns a single-line summary for the heartbeat log.
func FormatLine(snap Snapshot) string {
	mean := "n/a"
	if snap.WindowValid {
		mean = fmt.Sprintf("%.2f(n=%d)", snap.Window.Mean, snap.Window.Count)
	}
	return fmt.Sprintf("uptime=%v mode=%s cooldown=%t mean=%s reads=%d failures=%d stored=%d heating=%d cooling=%d idle=%d",
		snap.Uptime().Truncate(time.Second), snap.Mode, snap.InCooldown, mean,
		snap.Sampler.Reads, snap.Sampler.Failures, snap.Sampler.Stored,
		snap.Counts.Heating, snap.Counts.Cooling, snap.Counts.Idle)
}
