package actuator

import (
	"sync"

	"github.com/sweeney/hvac-controller/internal/logic"
)

// FakeActuator records commanded modes for test assertions.
type FakeActuator struct {
	mu sync.Mutex

	// Modes contains every mode that was set successfully.
	Modes []logic.Mode

	// SetError, if set, will be returned by SetMode.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeActuator creates a FakeActuator for testing.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// SetMode records the mode.
func (f *FakeActuator) SetMode(mode logic.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}

	f.Modes = append(f.Modes, mode)
	return nil
}

// Calls returns a copy of the recorded modes.
func (f *FakeActuator) Calls() []logic.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Mode(nil), f.Modes...)
}

// Close marks the actuator as closed.
func (f *FakeActuator) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears recorded modes.
func (f *FakeActuator) Reset() {
	f.mu.Lock()
	f.Modes = nil
	f.SetError = nil
	f.Closed = false
	f.mu.Unlock()
}
