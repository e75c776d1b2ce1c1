// Package config holds the controller's startup configuration. Values are
// fixed once the tasks start; there is no runtime reconfiguration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// Config is the full startup configuration.
type Config struct {
	// SamplePeriod is the interval between sensor reads.
	SamplePeriod time.Duration `yaml:"sample_period"`
	// EvalPeriod is the interval between policy evaluations.
	EvalPeriod time.Duration `yaml:"eval_period"`
	// Window is the trailing aggregation window.
	Window time.Duration `yaml:"window"`
	// Capacity is the sample store size; 0 derives it from Window and SamplePeriod.
	Capacity int `yaml:"capacity"`
	// SensorTimeout bounds a single sensor read; 0 means SamplePeriod.
	SensorTimeout time.Duration `yaml:"sensor_timeout"`
	// Heartbeat is the status log interval; 0 disables it.
	Heartbeat time.Duration `yaml:"heartbeat"`

	Thresholds logic.Thresholds `yaml:"thresholds"`
}

// Default returns the stock configuration: 1s sampling, 100ms evaluation,
// a 10 minute window, and 18–24°C setpoints with a 1°C band and 5 minute
// cooldown.
func Default() Config {
	return Config{
		SamplePeriod: time.Second,
		EvalPeriod:   100 * time.Millisecond,
		Window:       600 * time.Second,
		Heartbeat:    15 * time.Minute,
		Thresholds: logic.Thresholds{
			LowSetpoint:    18.0,
			HighSetpoint:   24.0,
			HysteresisBand: 1.0,
			Cooldown:       300 * time.Second,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values; unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// RequiredCapacity is the smallest store that can hold a full window of
// samples. The window is closed at both ends, hence the extra slot.
func (c Config) RequiredCapacity() int {
	if c.SamplePeriod <= 0 {
		return 0
	}
	n := c.Window / c.SamplePeriod
	if c.Window%c.SamplePeriod != 0 {
		n++
	}
	return int(n) + 1
}

// EffectiveCapacity is Capacity, or RequiredCapacity when Capacity is 0.
func (c Config) EffectiveCapacity() int {
	if c.Capacity == 0 {
		return c.RequiredCapacity()
	}
	return c.Capacity
}

// EffectiveSensorTimeout is SensorTimeout, or SamplePeriod when unset.
func (c Config) EffectiveSensorTimeout() time.Duration {
	if c.SensorTimeout == 0 {
		return c.SamplePeriod
	}
	return c.SensorTimeout
}

// Validate reports every inconsistency in c.
func (c Config) Validate() error {
	var errs []error
	if c.SamplePeriod <= 0 {
		errs = append(errs, fmt.Errorf("sample_period must be > 0 (got %v)", c.SamplePeriod))
	}
	if c.EvalPeriod <= 0 {
		errs = append(errs, fmt.Errorf("eval_period must be > 0 (got %v)", c.EvalPeriod))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be > 0 (got %v)", c.Window))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must be >= 0 (got %d)", c.Capacity))
	} else if c.Capacity > 0 && c.SamplePeriod > 0 && c.Capacity < c.RequiredCapacity() {
		errs = append(errs, fmt.Errorf("capacity %d cannot hold a %v window at %v sampling (need %d)",
			c.Capacity, c.Window, c.SamplePeriod, c.RequiredCapacity()))
	}
	if c.SensorTimeout < 0 {
		errs = append(errs, fmt.Errorf("sensor_timeout must be >= 0 (got %v)", c.SensorTimeout))
	} else if c.SamplePeriod > 0 && c.SensorTimeout > c.SamplePeriod {
		errs = append(errs, fmt.Errorf("sensor_timeout %v exceeds sample_period %v", c.SensorTimeout, c.SamplePeriod))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must be >= 0 (got %v)", c.Heartbeat))
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}
	return errors.Join(errs...)
}

// Warnings returns advisory messages for a valid but questionable config.
func (c Config) Warnings() []string {
	var w []string
	th := c.Thresholds
	if th.HysteresisBand == 0 && th.Cooldown == 0 {
		w = append(w, "no hysteresis band or cooldown; the actuator may flap in noisy conditions")
	}
	if th.Cooldown > 0 && th.Cooldown < c.Window/2 {
		w = append(w, fmt.Sprintf("cooldown %v may be too low for a %v window; consider >= %v", th.Cooldown, c.Window, c.Window/2))
	}
	if c.EvalPeriod > c.SamplePeriod {
		w = append(w, fmt.Sprintf("eval_period %v is longer than sample_period %v", c.EvalPeriod, c.SamplePeriod))
	}
	return w
}
