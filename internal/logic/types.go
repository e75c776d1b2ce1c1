// Package logic contains the pure hysteresis/cooldown policy for the HVAC unit.
// This package has NO external dependencies (no sensor, actuator, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// Mode is the operating mode commanded to the HVAC actuator.
type Mode string

const (
	ModeIdle    Mode = "IDLE"
	ModeHeating Mode = "HEATING"
	ModeCooling Mode = "COOLING"
)

// Thresholds configure the hysteresis bands and the minimum dwell between
// mode changes.
type Thresholds struct {
	// Heating starts below this temperature.
	LowSetpoint float64 `yaml:"low_setpoint"`
	// Cooling starts above this temperature.
	HighSetpoint float64 `yaml:"high_setpoint"`
	// Distance past a setpoint required before returning to idle.
	HysteresisBand float64 `yaml:"hysteresis_band"`
	// Minimum time between two mode changes.
	Cooldown time.Duration `yaml:"cooldown"`
}

var (
	ErrSetpointOrder = errors.New("low setpoint must be below high setpoint")
	ErrNegativeBand  = errors.New("hysteresis band must be >= 0")
	ErrBandTooWide   = errors.New("hysteresis band overlaps the opposite setpoint")
	ErrNegativeDwell = errors.New("cooldown must be >= 0")
)

// Validate reports the first inconsistency in t.
func (t Thresholds) Validate() error {
	if t.LowSetpoint >= t.HighSetpoint {
		return fmt.Errorf("%w (low=%.2f high=%.2f)", ErrSetpointOrder, t.LowSetpoint, t.HighSetpoint)
	}
	if t.HysteresisBand < 0 {
		return ErrNegativeBand
	}
	if t.LowSetpoint+t.HysteresisBand > t.HighSetpoint {
		return fmt.Errorf("%w (low+band=%.2f high=%.2f)", ErrBandTooWide, t.LowSetpoint+t.HysteresisBand, t.HighSetpoint)
	}
	if t.Cooldown < 0 {
		return ErrNegativeDwell
	}
	return nil
}

// State is the policy's memory between evaluations.
type State struct {
	Mode Mode
	// LastTransition is the time of the most recent mode change. Only
	// meaningful when Transitioned is set.
	LastTransition time.Time
	// Transitioned is false until the first mode change.
	Transitioned bool
}

// InitialState returns the startup state: idle, with no cooldown pending.
func InitialState() State {
	return State{Mode: ModeIdle}
}

// Input is one evaluation of the windowed temperature.
type Input struct {
	Value float64
	Valid bool // false when the window held no samples
	Time  time.Time
}

// Command is an actuator command produced by a mode change.
type Command struct {
	Timestamp time.Time
	From      Mode
	To        Mode
	Value     float64 // windowed temperature that caused the change
}

// TransitionCounts tracks the number of transitions into each mode since startup.
type TransitionCounts struct {
	Heating int
	Cooling int
	Idle    int
}
