package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartEnd(t *testing.T) {
	r := New()

	require.NoError(t, r.Start(1, "extraction", "a.zip"))
	assert.ErrorIs(t, r.Start(1, "extraction", "b.zip"), ErrAlreadyActive)

	r.End(1)
	assert.NoError(t, r.Start(1, "extraction", "b.zip"))
}

func TestRegistry_Cancel(t *testing.T) {
	r := New()

	assert.False(t, r.RequestCancel(7), "cancel without active process is a no-op")
	assert.False(t, r.IsCancelled(7))

	require.NoError(t, r.Start(7, "extraction", "a.zip"))
	assert.True(t, r.RequestCancel(7))
	assert.True(t, r.IsCancelled(7))

	// Отмененный процесс сразу неактивен, можно запускать новый.
	require.NoError(t, r.Start(7, "extraction", "b.zip"))
	assert.False(t, r.IsCancelled(7), "new process starts with a clean cancel flag")
}

func TestRegistry_IndependentUsers(t *testing.T) {
	r := New()

	require.NoError(t, r.Start(1, "extraction", "a.zip"))
	require.NoError(t, r.Start(2, "extraction", "b.zip"))

	r.RequestCancel(1)
	assert.True(t, r.IsCancelled(1))
	assert.False(t, r.IsCancelled(2))
}

func TestRegistry_ConcurrentStart(t *testing.T) {
	r := New()

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Start(42, "extraction", "a.zip"); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load(), "exactly one concurrent start must win")
}

func TestRegistry_Active(t *testing.T) {
	r := New()

	require.NoError(t, r.Start(1, "extraction", "a.zip"))
	require.NoError(t, r.Start(2, "broadcast", ""))
	r.End(2)

	active := r.Active()
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].UserID)
	assert.Equal(t, "a.zip", active[0].Filename)
}
