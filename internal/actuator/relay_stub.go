//go:build !linux

package actuator

import (
	"errors"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// RelayActuator is not available on non-Linux platforms.
type RelayActuator struct{}

// NewRelayActuator returns an error on non-Linux platforms.
func NewRelayActuator(chipName string, pinHeat, pinCool int) (*RelayActuator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetMode is not implemented on non-Linux platforms.
func (r *RelayActuator) SetMode(mode logic.Mode) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RelayActuator) Close() error {
	return nil
}
