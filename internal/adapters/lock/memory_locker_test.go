package lock

import (
	"context"
	"manifest-service/internal/domain"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_BusyAfterWait(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "vehicle:V1")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "driver:D1", "vehicle:V1")
	assert.ErrorIs(t, err, domain.ErrResourceBusy)

	release()

	release2, err := l.Acquire(context.Background(), "driver:D1", "vehicle:V1")
	require.NoError(t, err)
	release2()
	assert.Empty(t, l.slots)
}

func TestMemoryLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLocker(0)

	release, err := l.Acquire(context.Background(), "trip:T1")
	require.NoError(t, err)
	release()
	release()

	release, err = l.Acquire(context.Background(), "trip:T1")
	require.NoError(t, err)
	release()
}

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	l := NewMemoryLocker(0)

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "vehicle:V1", "driver:D1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker(0)

	release, err := l.Acquire(context.Background(), "job:J1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(ctx, "job:J1")
	assert.ErrorIs(t, err, domain.ErrResourceBusy)
}
