//go:build linux

package actuator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// RelayActuator drives heat and cool relays from Linux GPIO character device
// output lines.
type RelayActuator struct {
	chip    *gpiocdev.Chip
	heatPin *gpiocdev.Line
	coolPin *gpiocdev.Line
}

// NewRelayActuator requests the heat and cool lines as outputs, both
// de-energised.
func NewRelayActuator(chipName string, pinHeat, pinCool int) (*RelayActuator, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	heatLine, err := chip.RequestLine(pinHeat, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("hvac-heat"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request heat pin %d: %w", pinHeat, err)
	}

	coolLine, err := chip.RequestLine(pinCool, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("hvac-cool"))
	if err != nil {
		heatLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request cool pin %d: %w", pinCool, err)
	}

	return &RelayActuator{
		chip:    chip,
		heatPin: heatLine,
		coolPin: coolLine,
	}, nil
}

// SetMode switches the relays for mode. The relay being released is always
// written before the one being energised (break-before-make).
func (r *RelayActuator) SetMode(mode logic.Mode) error {
	heat, cool := relayLevels(mode)

	first, second := r.heatPin, r.coolPin
	firstVal, secondVal := heat, cool
	if heat == 1 {
		first, second = r.coolPin, r.heatPin
		firstVal, secondVal = cool, heat
	}

	if err := first.SetValue(firstVal); err != nil {
		return fmt.Errorf("set mode %s: %w", mode, err)
	}
	if err := second.SetValue(secondVal); err != nil {
		return fmt.Errorf("set mode %s: %w", mode, err)
	}
	return nil
}

// Close releases both relays and the GPIO lines.
// Pins are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so the relay board sees a clean state across reboots.
func (r *RelayActuator) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{{"heat", r.heatPin}, {"cool", r.coolPin}} {
		if l.line == nil {
			continue
		}
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release %s pin: %w", l.name, err))
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
