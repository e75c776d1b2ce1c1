package task

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/hvac-controller/internal/actuator"
	"github.com/sweeney/hvac-controller/internal/logic"
	"github.com/sweeney/hvac-controller/internal/status"
	"github.com/sweeney/hvac-controller/internal/window"
)

// PolicyTask evaluates the hysteresis policy against the windowed mean and
// forwards mode changes to the actuator. The policy state is only touched
// from the goroutine running Step.
type PolicyTask struct {
	source   window.Source
	spec     window.Spec
	policy   *logic.Policy
	actuator actuator.Actuator
	tracker  *status.Tracker
}

// NewPolicyTask creates a PolicyTask. tracker may be nil.
func NewPolicyTask(src window.Source, spec window.Spec, policy *logic.Policy, act actuator.Actuator, tracker *status.Tracker) *PolicyTask {
	return &PolicyTask{
		source:   src,
		spec:     spec,
		policy:   policy,
		actuator: act,
		tracker:  tracker,
	}
}

// Step performs one evaluation at now. A mode change is sent to the actuator
// exactly once. If the actuator fails the error is logged and the new state is
// kept; the command is not retried.
func (p *PolicyTask) Step(_ context.Context, now time.Time) {
	agg, ok := window.Mean(p.source, now, p.spec)
	cmd := p.policy.Evaluate(logic.Input{Value: agg.Mean, Valid: ok, Time: now})

	if cmd != nil {
		log.Printf("policy: %s -> %s (mean=%.2f n=%d)", cmd.From, cmd.To, cmd.Value, agg.Count)
		if err := p.actuator.SetMode(cmd.To); err != nil {
			log.Printf("policy: actuator error: %v", err)
		}
	}

	if p.tracker != nil {
		p.tracker.UpdatePolicy(p.policy.State(), p.policy.InCooldown(now), agg, ok, p.policy.Counts())
	}
}

// State returns the current policy state. Only safe once the task has stopped.
func (p *PolicyTask) State() logic.State {
	return p.policy.State()
}

// Task wraps the policy task for scheduling.
func (p *PolicyTask) Task(period time.Duration) Task {
	return Task{Name: "policy", Period: period, Step: p.Step}
}
