package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"voxel-launcher/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Runner starts one goroutine per background operation. All tasks share a
// context that is cancelled on Shutdown.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger logger.Logger

	wg      sync.WaitGroup
	active  int64
	closing int32
}

func NewRunner(parent context.Context, log logger.Logger) *Runner {
	ctx, cancel := context.WithCancel(parent)
	return &Runner{ctx: ctx, cancel: cancel, logger: log}
}

// Go runs fn in a new goroutine. done, if not nil, receives fn's error (or a
// recovered panic) after fn returns. Tasks submitted after Shutdown are
// dropped and done receives context.Canceled.
func (r *Runner) Go(name string, fn func(ctx context.Context) error, done func(error)) {
	if atomic.LoadInt32(&r.closing) == 1 {
		if done != nil {
			done(context.Canceled)
		}
		return
	}

	r.wg.Add(1)
	atomic.AddInt64(&r.active, 1)
	go func() {
		defer r.wg.Done()
		defer atomic.AddInt64(&r.active, -1)

		start := time.Now()
		r.logger.Debug("Tasks", "task started", map[string]interface{}{"task": name})

		err := r.run(name, fn)
		if err != nil {
			r.logger.Error("Tasks", err, map[string]interface{}{
				"task":     name,
				"duration": time.Since(start).String(),
			})
		} else {
			r.logger.Debug("Tasks", "task finished", map[string]interface{}{
				"task":     name,
				"duration": time.Since(start).String(),
			})
		}

		if done != nil {
			done(err)
		}
	}()
}

func (r *Runner) run(name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task %s panicked: %v", name, p)
			r.logger.Warning("Tasks", "recovered panic", map[string]interface{}{
				"task":  name,
				"stack": string(debug.Stack()),
			})
		}
	}()
	return fn(r.ctx)
}

// Context is the context handed to every task.
func (r *Runner) Context() context.Context {
	return r.ctx
}

// Active is the number of tasks still running.
func (r *Runner) Active() int {
	return int(atomic.LoadInt64(&r.active))
}

// Shutdown cancels outstanding tasks and waits a bounded time for them.
func (r *Runner) Shutdown() {
	atomic.StoreInt32(&r.closing, 1)
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		r.logger.Warning("Tasks", "tasks still running at shutdown", map[string]interface{}{
			"active": r.Active(),
		})
	}
}
