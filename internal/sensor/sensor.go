// Package sensor provides temperature reading with hardware abstraction.
// The real implementation reads a 1-Wire sensor through Linux sysfs.
// The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"errors"
	"math"
)

// Reader reads the current temperature.
type Reader interface {
	// Read returns the current temperature in degrees Celsius. It must
	// return once ctx is done.
	Read(ctx context.Context) (float64, error)

	// Close releases sensor resources.
	Close() error
}

// ErrInvalidValue is returned for readings that are not finite numbers.
var ErrInvalidValue = errors.New("sensor: invalid reading")

// Check rejects NaN and infinite readings.
func Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidValue
	}
	return nil
}
