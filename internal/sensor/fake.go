package sensor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FakeReader is a test double that returns scripted temperatures.
type FakeReader struct {
	mu sync.Mutex

	// Values contains scripted temperatures to return.
	// Each call to Read() consumes the next value.
	Values []float64

	// index tracks current position in Values
	index int

	// Calls counts Read invocations, including failed ones.
	Calls int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Delay, if set, makes Read block this long or until ctx is done.
	Delay time.Duration
}

// NewFakeReader creates a FakeReader with the given values.
func NewFakeReader(values ...float64) *FakeReader {
	return &FakeReader{Values: values}
}

// Read returns the next scripted value.
// If values are exhausted, returns the last value repeatedly.
func (f *FakeReader) Read(ctx context.Context) (float64, error) {
	f.mu.Lock()
	f.Calls++
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}

	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}

	return v, nil
}

// SetError replaces ReadError while the reader may be in use.
func (f *FakeReader) SetError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// SetValues replaces the scripted values and restarts from the first one.
func (f *FakeReader) SetValues(values ...float64) {
	f.mu.Lock()
	f.Values = values
	f.index = 0
	f.mu.Unlock()
}

// CallCount returns the number of Read calls so far.
func (f *FakeReader) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset resets the reader to the beginning of values.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Calls = 0
	f.Closed = false
	f.mu.Unlock()
}
