package logic

import "time"

// Decide applies one evaluation to state and returns the resulting state. A
// non-nil Command is returned only when the mode changes.
//
// Invalid input (no samples in the window) and evaluations inside the
// cooldown window leave state untouched.
func Decide(in Input, state State, th Thresholds) (State, *Command) {
	if !in.Valid {
		return state, nil
	}
	if state.inCooldown(in.Time, th.Cooldown) {
		return state, nil
	}

	next := nextMode(state.Mode, in.Value, th)
	if next == state.Mode {
		return state, nil
	}

	cmd := &Command{
		Timestamp: in.Time,
		From:      state.Mode,
		To:        next,
		Value:     in.Value,
	}
	return State{Mode: next, LastTransition: in.Time, Transitioned: true}, cmd
}

// nextMode applies the hysteresis bands for the current mode.
func nextMode(current Mode, value float64, th Thresholds) Mode {
	switch current {
	case ModeHeating:
		// Must rise past the band before switching off.
		if value >= th.LowSetpoint+th.HysteresisBand {
			return ModeIdle
		}
		return ModeHeating
	case ModeCooling:
		if value <= th.HighSetpoint-th.HysteresisBand {
			return ModeIdle
		}
		return ModeCooling
	default:
		if value < th.LowSetpoint {
			return ModeHeating
		}
		if value > th.HighSetpoint {
			return ModeCooling
		}
		return ModeIdle
	}
}

// inCooldown reports whether a mode change at now would come too soon after
// the previous one. A clock that moved backwards counts as inside cooldown.
func (s State) inCooldown(now time.Time, cooldown time.Duration) bool {
	if !s.Transitioned {
		return false
	}
	return now.Sub(s.LastTransition) < cooldown
}

// Policy owns the policy state for a single HVAC unit.
type Policy struct {
	thresholds Thresholds
	state      State
	counts     TransitionCounts
}

// NewPolicy creates a policy in the initial idle state.
func NewPolicy(th Thresholds) *Policy {
	return &Policy{
		thresholds: th,
		state:      InitialState(),
	}
}

// Evaluate runs Decide against the current state, stores the result and
// returns the command to send, if any.
func (p *Policy) Evaluate(in Input) *Command {
	next, cmd := Decide(in, p.state, p.thresholds)
	p.state = next
	if cmd == nil {
		return nil
	}

	switch cmd.To {
	case ModeHeating:
		p.counts.Heating++
	case ModeCooling:
		p.counts.Cooling++
	case ModeIdle:
		p.counts.Idle++
	}
	return cmd
}

// State returns the current policy state.
func (p *Policy) State() State {
	return p.state
}

// Counts returns the transitions made since startup.
func (p *Policy) Counts() TransitionCounts {
	return p.counts
}

// InCooldown reports whether a mode change at now would be suppressed.
func (p *Policy) InCooldown(now time.Time) bool {
	return p.state.inCooldown(now, p.thresholds.Cooldown)
}
