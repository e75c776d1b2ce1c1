// Command hvac-controller samples a temperature sensor and drives an HVAC unit
// between IDLE, HEATING and COOLING using a windowed mean with hysteresis and
// a post-transition cooldown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/hvac-controller/internal/actuator"
	"github.com/sweeney/hvac-controller/internal/config"
	"github.com/sweeney/hvac-controller/internal/logic"
	"github.com/sweeney/hvac-controller/internal/sensor"
	"github.com/sweeney/hvac-controller/internal/status"
	"github.com/sweeney/hvac-controller/internal/store"
	"github.com/sweeney/hvac-controller/internal/task"
	"github.com/sweeney/hvac-controller/internal/window"
)

// Default relay pins (BCM numbering).
const (
	DefaultPinHeat = 23
	DefaultPinCool = 24
)

type options struct {
	cfg        config.Config
	sensorPath string
	actuator   string
	gpioChip   string
	pinHeat    int
	pinCool    int
	broker     string
	unit       string
	printState bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags builds the options from defaults, then the -config file if
// given, then any flags set explicitly on the command line.
func parseFlags(args []string) (options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("hvac-controller", flag.ContinueOnError)

	configPath := fs.String("config", "", "YAML config file (flags given explicitly override it)")
	sample := fs.Duration("sample", def.SamplePeriod, "Sensor sampling period")
	eval := fs.Duration("eval", def.EvalPeriod, "Policy evaluation period")
	win := fs.Duration("window", def.Window, "Averaging window")
	capacity := fs.Int("capacity", def.Capacity, "Sample store capacity (0 derives it from window and sample)")
	sensorTimeout := fs.Duration("sensor-timeout", def.SensorTimeout, "Per-read sensor timeout (0 uses the sample period)")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat log interval (0 to disable)")
	low := fs.Float64("low", def.Thresholds.LowSetpoint, "Low setpoint in °C; heat below it")
	high := fs.Float64("high", def.Thresholds.HighSetpoint, "High setpoint in °C; cool above it")
	band := fs.Float64("band", def.Thresholds.HysteresisBand, "Hysteresis band in °C")
	cooldown := fs.Duration("cooldown", def.Thresholds.Cooldown, "Minimum time between mode changes")

	var opts options
	fs.StringVar(&opts.sensorPath, "sensor", "", "1-Wire sensor path (empty to auto-detect under "+sensor.DefaultW1Dir+")")
	fs.StringVar(&opts.actuator, "actuator", "gpio", "Actuator: gpio, mqtt or none")
	fs.StringVar(&opts.gpioChip, "gpio-chip", "gpiochip0", "GPIO chip for the relay outputs")
	fs.IntVar(&opts.pinHeat, "pin-heat", DefaultPinHeat, "BCM pin for the heat relay")
	fs.IntVar(&opts.pinCool, "pin-cool", DefaultPinCool, "BCM pin for the cool relay")
	fs.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (mqtt actuator)")
	fs.StringVar(&opts.unit, "unit", "main", "HVAC unit name used in the MQTT topic")
	fs.BoolVar(&opts.printState, "print-state", false, "Read the sensor once, print status JSON and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg := def
	if *configPath != "" {
		if err := config.LoadFile(*configPath, &cfg); err != nil {
			return options{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sample":
			cfg.SamplePeriod = *sample
		case "eval":
			cfg.EvalPeriod = *eval
		case "window":
			cfg.Window = *win
		case "capacity":
			cfg.Capacity = *capacity
		case "sensor-timeout":
			cfg.SensorTimeout = *sensorTimeout
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "low":
			cfg.Thresholds.LowSetpoint = *low
		case "high":
			cfg.Thresholds.HighSetpoint = *high
		case "band":
			cfg.Thresholds.HysteresisBand = *band
		case "cooldown":
			cfg.Thresholds.Cooldown = *cooldown
		}
	})
	opts.cfg = cfg
	return opts, nil
}

func run(opts options) error {
	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("config warning: %s", w)
	}

	reader, err := openSensor(opts.sensorPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(opts))

	if opts.printState {
		return printState(reader, cfg, tracker, os.Stdout)
	}

	act, err := newActuator(opts)
	if err != nil {
		return err
	}
	defer act.Close()

	// Put the unit into the policy's initial mode.
	if err := act.SetMode(logic.ModeIdle); err != nil {
		log.Printf("startup: set idle: %v", err)
	}

	st := store.New(cfg.EffectiveCapacity())
	sampler := task.NewSampler(reader, st, cfg.EffectiveSensorTimeout(), tracker)
	policy := task.NewPolicyTask(st, window.Spec{Duration: cfg.Window}, logic.NewPolicy(cfg.Thresholds), act, tracker)

	conn, _ := act.(task.ConnectionStatus) // only the MQTT actuator has a link

	tasks := []task.Task{
		sampler.Task(cfg.SamplePeriod),
		policy.Task(cfg.EvalPeriod),
		task.Heartbeat(tracker, conn, cfg.Heartbeat),
	}

	log.Printf("started: sample=%v eval=%v window=%v capacity=%d low=%.1f high=%.1f band=%.1f cooldown=%v actuator=%s",
		cfg.SamplePeriod, cfg.EvalPeriod, cfg.Window, st.Cap(),
		cfg.Thresholds.LowSetpoint, cfg.Thresholds.HighSetpoint, cfg.Thresholds.HysteresisBand, cfg.Thresholds.Cooldown,
		opts.actuator)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(tasks, act, startTicker, sigCh)
}

// startTicker schedules t on a real ticker.
func startTicker(g *task.Group, t task.Task) {
	g.Go(t)
}

// runLoop runs the tasks until a signal arrives, then stops them and leaves
// the unit idle. start decides how each task is scheduled.
func runLoop(tasks []task.Task, act actuator.Actuator, start func(*task.Group, task.Task), sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := task.NewGroup(ctx)
	for _, t := range tasks {
		start(g, t)
	}

	s := <-sig
	log.Printf("received %v, shutting down", s)
	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("task error: %v", err)
	}

	if err := act.SetMode(logic.ModeIdle); err != nil {
		log.Printf("shutdown: set idle: %v", err)
	}
	return nil
}

// printState takes one reading and writes the status JSON to w.
func printState(reader sensor.Reader, cfg config.Config, tracker *status.Tracker, w io.Writer) error {
	st := store.New(cfg.EffectiveCapacity())
	sampler := task.NewSampler(reader, st, cfg.EffectiveSensorTimeout(), tracker)

	now := time.Now()
	sampler.Step(context.Background(), now)
	if sampler.Stats().Failures > 0 {
		return fmt.Errorf("read sensor: no valid reading")
	}

	agg, ok := window.Mean(st, now, window.Spec{Duration: cfg.Window})
	tracker.UpdatePolicy(logic.InitialState(), false, agg, ok, logic.TransitionCounts{})

	_, err := fmt.Fprintf(w, "%s\n", status.FormatJSON(tracker.Snapshot()))
	return err
}

func openSensor(path string) (sensor.Reader, error) {
	if path == "" {
		dev, err := sensor.FindW1Device(sensor.DefaultW1Dir)
		if err != nil {
			return nil, fmt.Errorf("init sensor: %w", err)
		}
		path = dev
	}
	r, err := sensor.NewW1Reader(path)
	if err != nil {
		return nil, fmt.Errorf("init sensor: %w", err)
	}
	log.Printf("sensor: %s", path)
	return r, nil
}

func newActuator(opts options) (actuator.Actuator, error) {
	switch opts.actuator {
	case "gpio":
		a, err := actuator.NewRelayActuator(opts.gpioChip, opts.pinHeat, opts.pinCool)
		if err != nil {
			return nil, fmt.Errorf("init relays: %w", err)
		}
		return a, nil
	case "mqtt":
		a, err := actuator.NewMQTTActuator(opts.broker, opts.unit)
		if err != nil {
			return nil, fmt.Errorf("init mqtt: %w", err)
		}
		log.Printf("mqtt actuator: broker=%s topic=%s run_id=%s", opts.broker, actuator.ModeTopic(opts.unit), a.RunID())
		return a, nil
	case "none":
		return actuator.LogActuator{}, nil
	default:
		return nil, fmt.Errorf("unknown actuator %q (want gpio, mqtt or none)", opts.actuator)
	}
}

func statusConfig(opts options) status.Config {
	cfg := opts.cfg
	return status.Config{
		SamplePeriodMs: cfg.SamplePeriod.Milliseconds(),
		EvalPeriodMs:   cfg.EvalPeriod.Milliseconds(),
		WindowMs:       cfg.Window.Milliseconds(),
		Capacity:       cfg.EffectiveCapacity(),
		HeartbeatMs:    cfg.Heartbeat.Milliseconds(),
		Thresholds:     cfg.Thresholds,
		Actuator:       opts.actuator,
	}
}
