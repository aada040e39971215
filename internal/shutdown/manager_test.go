package shutdown

import (
	"sync"
	"testing"
	"time"

	"voxel-launcher/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(logger.Nop())

	var mu sync.Mutex
	var order []string
	record := func(name string) Func {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	m.Register("history", record("history"))
	m.Register("tasks", record("tasks"))
	m.Register("controller", record("controller"))

	m.Shutdown()

	assert.Equal(t, []string{"controller", "tasks", "history"}, order)
	assert.Error(t, m.Context().Err())

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	m := NewManager(logger.Nop())

	calls := 0
	m.Register("counter", Func(func() { calls++ }))

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, 1, calls)
}

func TestShutdownSkipsHungComponent(t *testing.T) {
	m := NewManager(logger.Nop())
	m.timeout = 20 * time.Millisecond

	release := make(chan struct{})
	defer close(release)

	stopped := false
	m.Register("fast", Func(func() { stopped = true }))
	m.Register("hung", Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()

	require.True(t, stopped)
	assert.Less(t, time.Since(start), 2*time.Second)
}
