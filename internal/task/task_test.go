package task

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/hvac-controller/internal/actuator"
	"github.com/sweeney/hvac-controller/internal/logic"
	"github.com/sweeney/hvac-controller/internal/sensor"
	"github.com/sweeney/hvac-controller/internal/status"
	"github.com/sweeney/hvac-controller/internal/store"
	"github.com/sweeney/hvac-controller/internal/window"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var testThresholds = logic.Thresholds{
	LowSetpoint:    18,
	HighSetpoint:   24,
	HysteresisBand: 1,
	Cooldown:       300 * time.Second,
}

// fakeClock yields start, start+step, start+2*step, ... on successive calls.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// fill appends one sample per second ending at end.
func fill(st *store.Store, end time.Time, n int, v float64) {
	for i := n - 1; i >= 0; i-- {
		st.Append(store.Sample{Time: end.Add(-time.Duration(i) * time.Second), Value: v})
	}
}

func TestSamplerAppendsReadings(t *testing.T) {
	reader := sensor.NewFakeReader(20.0, 20.5, 21.0)
	st := store.New(10)
	s := NewSampler(reader, st, time.Second, nil)

	for i := 0; i < 3; i++ {
		s.Step(context.Background(), t0.Add(time.Duration(i)*time.Second))
	}

	var got []store.Sample
	for smp := range st.All() {
		got = append(got, smp)
	}
	require.Equal(t, []store.Sample{
		{Time: t0, Value: 20.0},
		{Time: t0.Add(time.Second), Value: 20.5},
		{Time: t0.Add(2 * time.Second), Value: 21.0},
	}, got)

	stats := s.Stats()
	require.Equal(t, uint64(3), stats.Reads)
	require.Zero(t, stats.Failures)
	require.Equal(t, 3, stats.Stored)
}

func TestSamplerSkipsFailedReads(t *testing.T) {
	reader := sensor.NewFakeReader(20.0)
	reader.SetError(errors.New("bus error"))
	st := store.New(10)
	s := NewSampler(reader, st, time.Second, nil)

	for i := 0; i < 5; i++ {
		s.Step(context.Background(), t0.Add(time.Duration(i)*time.Second))
	}

	require.Zero(t, st.Len())
	require.Zero(t, st.Written())
	stats := s.Stats()
	require.Equal(t, uint64(5), stats.Reads)
	require.Equal(t, uint64(5), stats.Failures)
	require.Equal(t, uint64(5), stats.ConsecutiveFailures)
}

func TestSamplerRecoveryResetsConsecutive(t *testing.T) {
	reader := sensor.NewFakeReader(20.0)
	reader.SetError(errors.New("bus error"))
	st := store.New(10)
	s := NewSampler(reader, st, time.Second, nil)

	s.Step(context.Background(), t0)
	s.Step(context.Background(), t0.Add(time.Second))
	reader.SetError(nil)
	s.Step(context.Background(), t0.Add(2*time.Second))

	stats := s.Stats()
	require.Equal(t, uint64(2), stats.Failures)
	require.Zero(t, stats.ConsecutiveFailures)
	require.Equal(t, 1, st.Len())
}

func TestSamplerRejectsNonFinite(t *testing.T) {
	reader := sensor.NewFakeReader(math.NaN(), math.Inf(1), math.Inf(-1), 19.0)
	st := store.New(10)
	s := NewSampler(reader, st, time.Second, nil)

	for i := 0; i < 4; i++ {
		s.Step(context.Background(), t0.Add(time.Duration(i)*time.Second))
	}

	require.Equal(t, 1, st.Len())
	require.Equal(t, uint64(3), s.Stats().Failures)
	for smp := range st.All() {
		require.Equal(t, 19.0, smp.Value)
	}
}

func TestSamplerTimeout(t *testing.T) {
	reader := sensor.NewFakeReader(20.0)
	reader.Delay = time.Second
	st := store.New(10)
	s := NewSampler(reader, st, 10*time.Millisecond, nil)

	start := time.Now()
	s.Step(context.Background(), t0)

	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Zero(t, st.Len())
	require.Equal(t, uint64(1), s.Stats().Failures)
}

func TestSamplerIgnoresReadInterruptedByShutdown(t *testing.T) {
	reader := sensor.NewFakeReader(20.0)
	reader.Delay = time.Hour
	st := store.New(10)
	s := NewSampler(reader, st, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Step(ctx, t0)
		close(done)
	}()

	require.Eventually(t, func() bool { return reader.CallCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	require.Equal(t, status.SamplerStats{}, s.Stats())
	require.Zero(t, st.Len())
}

func TestSamplerReportsToTracker(t *testing.T) {
	reader := sensor.NewFakeReader(20.0)
	st := store.New(10)
	tr := status.NewTracker(t0, status.Config{})
	s := NewSampler(reader, st, time.Second, tr)

	s.Step(context.Background(), t0)
	s.Step(context.Background(), t0.Add(time.Second))

	snap := tr.Snapshot()
	require.Equal(t, uint64(2), snap.Sampler.Reads)
	require.Equal(t, 2, snap.Sampler.Stored)
}

func newPolicyTask(st *store.Store, act actuator.Actuator, tr *status.Tracker) *PolicyTask {
	return NewPolicyTask(st, window.Spec{Duration: 600 * time.Second}, logic.NewPolicy(testThresholds), act, tr)
}

func TestPolicyTaskNoDataNoCommand(t *testing.T) {
	act := actuator.NewFakeActuator()
	p := newPolicyTask(store.New(601), act, nil)

	for i := 0; i < 10; i++ {
		p.Step(context.Background(), t0.Add(time.Duration(i)*100*time.Millisecond))
	}

	require.Empty(t, act.Calls())
	require.Equal(t, logic.InitialState(), p.State())
}

func TestPolicyTaskCommandsExactlyOnce(t *testing.T) {
	st := store.New(601)
	now := t0.Add(600 * time.Second)
	fill(st, now, 601, 16.0)
	act := actuator.NewFakeActuator()
	p := newPolicyTask(st, act, nil)

	// Repeated evaluations over an unchanged window.
	for i := 0; i < 10; i++ {
		p.Step(context.Background(), now.Add(time.Duration(i)*100*time.Millisecond))
	}

	require.Equal(t, []logic.Mode{logic.ModeHeating}, act.Calls())
	require.Equal(t, logic.ModeHeating, p.State().Mode)
	require.Equal(t, now, p.State().LastTransition)
}

func TestPolicyTaskActuatorErrorKeepsState(t *testing.T) {
	st := store.New(601)
	now := t0.Add(600 * time.Second)
	fill(st, now, 601, 30.0)
	act := actuator.NewFakeActuator()
	act.SetError = errors.New("relay stuck")
	p := newPolicyTask(st, act, nil)

	p.Step(context.Background(), now)
	p.Step(context.Background(), now.Add(100*time.Millisecond))

	require.Equal(t, logic.ModeCooling, p.State().Mode)
	require.Empty(t, act.Calls())
}

func TestPolicyTaskReportsToTracker(t *testing.T) {
	st := store.New(601)
	now := t0.Add(600 * time.Second)
	fill(st, now, 601, 16.0)
	tr := status.NewTracker(t0, status.Config{})
	p := newPolicyTask(st, actuator.NewFakeActuator(), tr)

	p.Step(context.Background(), now)

	snap := tr.Snapshot()
	require.Equal(t, logic.ModeHeating, snap.Mode)
	require.True(t, snap.InCooldown)
	require.True(t, snap.WindowValid)
	require.Equal(t, 601, snap.Window.Count)
	require.InDelta(t, 16.0, snap.Window.Mean, 1e-9)
	require.Equal(t, 1, snap.Counts.Heating)
}

func TestLoopStepsPerTick(t *testing.T) {
	var got []time.Time
	task := Task{Name: "test", Step: func(_ context.Context, now time.Time) {
		got = append(got, now)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		task.Loop(ctx, tick, fakeClock(t0, time.Second))
		close(done)
	}()

	for i := 0; i < 3; i++ {
		tick <- time.Time{}
	}
	cancel()
	<-done

	require.Equal(t, []time.Time{t0, t0.Add(time.Second), t0.Add(2 * time.Second)}, got)
}

func TestGroupRunsUntilCancelled(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	step := func(name string) func(context.Context, time.Time) {
		return func(context.Context, time.Time) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := NewGroup(ctx)
	g.Go(Task{Name: "fast", Period: time.Millisecond, Step: step("fast")})
	g.Go(Task{Name: "disabled", Period: 0, Step: step("disabled")})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts["fast"] >= 3
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, counts["disabled"])
}

func TestGroupStepsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGroup(ctx)
	g.Go(Task{Name: "slow", Period: time.Hour, Step: func(context.Context, time.Time) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first step did not run immediately")
	}
	cancel()
	require.NoError(t, g.Wait())
}

type fakeConn struct{ up bool }

func (c fakeConn) IsConnected() bool { return c.up }

func TestHeartbeatUpdatesConnection(t *testing.T) {
	tr := status.NewTracker(t0, status.Config{})
	hb := Heartbeat(tr, fakeConn{up: true}, time.Minute)

	require.Equal(t, "heartbeat", hb.Name)
	hb.Step(context.Background(), t0)
	require.True(t, tr.Snapshot().ActuatorConnected)

	Heartbeat(tr, nil, time.Minute).Step(context.Background(), t0)
	require.True(t, tr.Snapshot().ActuatorConnected)
}
