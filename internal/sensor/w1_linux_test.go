//go:build linux

package sensor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A FIFO blocks the reader in open until a writer shows up, which is how a
// stalled 1-Wire conversion looks from user space.
func newStalledW1(t *testing.T) (*W1Reader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temperature")
	require.NoError(t, syscall.Mkfifo(path, 0o600))
	r, err := NewW1Reader(path)
	require.NoError(t, err)
	return r, path
}

// unstall feeds value to the blocked read and waits for it to finish.
func unstall(t *testing.T, r *W1Reader, path, value string) (float64, error) {
	t.Helper()
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.WriteString(value)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Read(ctx)
}

func TestW1ReaderStalledBusKeepsOneRead(t *testing.T) {
	r, path := newStalledW1(t)

	// Settle the first read so the baseline includes its goroutine.
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	_, err := r.Read(ctx)
	cancel()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	before := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := r.Read(ctx)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	require.LessOrEqual(t, runtime.NumGoroutine(), before+2)

	v, err := unstall(t, r, path, "21500")
	require.NoError(t, err)
	require.Equal(t, 21.5, v)

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Nil(t, r.pending)
}
