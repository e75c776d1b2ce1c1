package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultW1Dir is where the Linux w1 bus exposes attached devices.
const DefaultW1Dir = "/sys/bus/w1/devices"

// W1Reader reads a DS18B20-style 1-Wire temperature sensor through sysfs.
type W1Reader struct {
	path string

	mu      sync.Mutex
	pending *w1Read // read still in flight, nil when idle
}

// NewW1Reader creates a reader for the given sysfs file. path may point at a
// device's "temperature" file (millidegrees) or its "w1_slave" file. If path
// is a device directory, "temperature" inside it is used.
func NewW1Reader(path string) (*W1Reader, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open w1 sensor: %w", err)
	}
	if fi.IsDir() {
		path = filepath.Join(path, "temperature")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open w1 sensor: %w", err)
		}
	}
	return &W1Reader{path: path}, nil
}

// FindW1Device returns the first DS18B20 (family 28) device directory under dir.
func FindW1Device(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "28-*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no 1-wire temperature sensor under %s", dir)
	}
	return matches[0], nil
}

// w1Read is a single file read. done is closed once v and err are set.
type w1Read struct {
	done chan struct{}
	v    float64
	err  error
}

// Read returns the current temperature in degrees Celsius.
// A conversion on the bus can take ~750ms, so the file read runs in its own
// goroutine and Read returns as soon as ctx is done. At most one file read is
// in flight: while a stalled read is outstanding, later calls wait on it
// instead of starting another, and the first caller after it finishes gets
// its result.
func (r *W1Reader) Read(ctx context.Context) (float64, error) {
	rd := r.start()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("read %s: %w", r.path, ctx.Err())
	case <-rd.done:
		r.mu.Lock()
		if r.pending == rd {
			r.pending = nil
		}
		r.mu.Unlock()
		return rd.v, rd.err
	}
}

// start returns the in-flight read, starting one if there is none.
func (r *W1Reader) start() *w1Read {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return r.pending
	}

	rd := &w1Read{done: make(chan struct{})}
	r.pending = rd
	go func() {
		defer close(rd.done)
		data, err := os.ReadFile(r.path)
		if err != nil {
			rd.err = fmt.Errorf("read %s: %w", r.path, err)
			return
		}
		rd.v, rd.err = parseW1(string(data))
	}()
	return rd
}

// Close is a no-op; each Read opens the file afresh.
func (r *W1Reader) Close() error {
	return nil
}

var errBadCRC = errors.New("w1: crc check failed")

// parseW1 accepts either the bare millidegree value of a "temperature" file
// or the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1(data string) (float64, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return 0, errors.New("w1: empty reading")
	}

	raw := data
	if strings.Contains(data, "t=") {
		lines := strings.Split(data, "\n")
		if len(lines) < 2 || !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
			return 0, errBadCRC
		}
		i := strings.LastIndex(lines[1], "t=")
		if i < 0 {
			return 0, fmt.Errorf("w1: no temperature field in %q", lines[1])
		}
		raw = strings.TrimSpace(lines[1][i+2:])
	}

	milli, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("w1: parse %q: %w", raw, err)
	}
	// 85000 is the DS18B20 power-on reset value, never a real reading.
	if milli == 85000 {
		return 0, errors.New("w1: sensor returned power-on reset value")
	}
	return float64(milli) / 1000, nil
}
