package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// fakeFinder records calls and tracks how many run at once.
type fakeFinder struct {
	// defaultAllow is returned by DefaultAllowDiskUse.
	defaultAllow bool
	// delay keeps each call busy for a while.
	delay time.Duration

	// mu guards calls.
	mu sync.Mutex
	// calls stores the toggle of every call.
	calls []bool
	// running is the number of calls in flight.
	running atomic.Int32
	// peak is the largest observed value of running.
	peak atomic.Int32
}

// FindMaskedAlarms records the call and returns one record.
func (f *fakeFinder) FindMaskedAlarms(_ context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	current := f.running.Add(1)
	defer f.running.Add(-1)

	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, allowDiskUse)
	f.mu.Unlock()

	return []alarm.Record{{alarm.FieldAlarmID: "A1"}}, nil
}

// DefaultAllowDiskUse returns the configured default.
func (f *fakeFinder) DefaultAllowDiskUse() bool {
	return f.defaultAllow
}

// TestService_AppliesDefaultToggle uses the configured policy when the request omits it.
func TestService_AppliesDefaultToggle(t *testing.T) {
	t.Parallel()

	f := &fakeFinder{defaultAllow: true}
	s := newService(f, 1)

	_, err := s.FindMaskedAlarms(context.Background(), nil)
	require.NoError(t, err)

	deny := false

	records, err := s.FindMaskedAlarms(context.Background(), &deny)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []bool{true, false}, f.calls)
}

// TestService_BoundsConcurrentRuns never runs more than the allowed number at once.
func TestService_BoundsConcurrentRuns(t *testing.T) {
	t.Parallel()

	f := &fakeFinder{delay: 20 * time.Millisecond}
	s := newService(f, 2)

	var wg sync.WaitGroup

	for range 6 {
		wg.Go(func() {
			_, err := s.FindMaskedAlarms(context.Background(), nil)
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	require.LessOrEqual(t, f.peak.Load(), int32(2))
	require.Len(t, f.calls, 6)
}

// TestService_CanceledWhileWaiting gives up when no slot frees in time.
func TestService_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	s := newService(new(fakeFinder), 1)
	require.True(t, s.runs.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.FindMaskedAlarms(ctx, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestResolveListenAddress prefers the override and binds config ports on all interfaces.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("host:1", ":2")
	require.NoError(t, err)
	require.Equal(t, ":2", address)

	address, err = resolveListenAddress("server.example.com:8080", "")
	require.NoError(t, err)
	require.Equal(t, ":8080", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}
