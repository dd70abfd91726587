// Package schedule runs repeating background tasks that can be stopped
// individually.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is a unit of periodic work. Run is invoked once per Interval until the
// task is stopped; the first run happens after one full interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Handle controls a started task.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Name returns the task name.
func (h *Handle) Name() string { return h.name }

// Stop cancels the task and waits for an in-flight run to finish.
// Stop is safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the task loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start launches a goroutine that invokes task.Run on every tick. The loop
// exits when ctx is cancelled or Stop is called. A panicking run is logged
// and does not stop later ticks.
func Start(ctx context.Context, task Task, logger zerolog.Logger) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		name:   task.Name,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(task.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, task, logger)
			}
		}
	}()

	return h
}

func runOnce(ctx context.Context, task Task, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("task", task.Name).Interface("panic", r).Msg("scheduled task panicked")
		}
	}()
	task.Run(ctx)
}

// Group tracks several handles so they can be stopped together.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
}

// Add records a handle in the group.
func (g *Group) Add(h *Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handles = append(g.handles, h)
}

// Get returns the handle registered under name.
func (g *Group) Get(name string) (*Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range g.handles {
		if h.name == name {
			return h, true
		}
	}
	return nil, false
}

// StopAll stops every task in the group and forgets them.
func (g *Group) StopAll() {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}
