// Package actuator drives the HVAC unit's operating mode.
// The relay implementation switches GPIO lines, the MQTT implementation
// commands a network-attached relay board, and the fake records commands
// for tests.
package actuator

import (
	"log"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// Actuator sets the HVAC operating mode. Implementations must tolerate
// redundant calls with the mode already in effect.
type Actuator interface {
	SetMode(mode logic.Mode) error

	// Close releases the actuator, leaving the unit idle where possible.
	Close() error
}

// relayLevels maps a mode onto the heat and cool relay outputs (1 = energised).
// Heat and cool are never energised together.
func relayLevels(mode logic.Mode) (heat, cool int) {
	switch mode {
	case logic.ModeHeating:
		return 1, 0
	case logic.ModeCooling:
		return 0, 1
	default:
		return 0, 0
	}
}

// LogActuator only logs commands. Used for dry runs.
type LogActuator struct{}

// SetMode logs the requested mode.
func (LogActuator) SetMode(mode logic.Mode) error {
	log.Printf("actuator: dry-run set mode %s", mode)
	return nil
}

// Close does nothing.
func (LogActuator) Close() error { return nil }
