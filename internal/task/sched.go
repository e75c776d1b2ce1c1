// Package task runs the controller's periodic work: sensor sampling, policy
// evaluation and the status heartbeat. Each task runs on its own goroutine
// and shares nothing with the others except the sample store and the status
// tracker.
package task

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is a named unit of periodic work.
type Task struct {
	Name   string
	Period time.Duration
	Step   func(ctx context.Context, now time.Time)
}

// Loop calls Step once per value received on tick, stamped with now(), until
// ctx is done. A Step that overruns its period delays the next one; missed
// ticks are not replayed.
func (t Task) Loop(ctx context.Context, tick <-chan time.Time, now func() time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if ctx.Err() != nil {
				return
			}
			t.Step(ctx, now())
		}
	}
}

// Group runs a set of tasks until its context is cancelled.
type Group struct {
	ctx context.Context
	eg  *errgroup.Group
}

// NewGroup creates a Group bound to ctx. Cancelling ctx stops every task.
func NewGroup(ctx context.Context) *Group {
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{ctx: ctx, eg: eg}
}

// Go starts t on its own time.Ticker. The first step runs immediately.
// Tasks with a non-positive period are not started.
func (g *Group) Go(t Task) {
	if t.Period <= 0 {
		return
	}
	g.eg.Go(func() error {
		ticker := time.NewTicker(t.Period)
		defer ticker.Stop()

		if g.ctx.Err() != nil {
			return nil
		}
		t.Step(g.ctx, time.Now())
		t.Loop(g.ctx, ticker.C, time.Now)
		return nil
	})
}

// GoTicks starts t driven by the given tick channel and clock instead of a
// ticker.
func (g *Group) GoTicks(t Task, tick <-chan time.Time, now func() time.Time) {
	g.eg.Go(func() error {
		t.Loop(g.ctx, tick, now)
		return nil
	})
}

// Wait blocks until every task has returned.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
