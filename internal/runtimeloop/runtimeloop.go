// Package runtimeloop implements the venue's single-threaded cooperative
// scheduler (§4.7): a fixed 1 Hz tick that fires every registered task
// once, in insertion order, until Terminate is called from another
// goroutine — the only cross-thread primitive in the core (§4.7, §9
// design note).
package runtimeloop

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of scheduled work. Tasks must be non-blocking and
// bounded in duration (§4.7): long-running work must be budgeted across
// ticks rather than done inline.
type Task func()

// Loop is the runtime's cooperative scheduler.
type Loop struct {
	tick       time.Duration
	tasks      []namedTask
	running    atomic.Bool
	done       chan struct{}
	terminated sync.Once
	logger     *zap.Logger
}

type namedTask struct {
	name string
	fn   Task
}

// New builds a loop with the given tick period (§4.7 fixes this at 1 Hz in
// production, where it comes from pkg/config's RuntimeTick; tests pass a
// much shorter period directly).
func New(tick time.Duration, logger *zap.Logger) *Loop {
	return &Loop{tick: tick, done: make(chan struct{}), logger: logger}
}

// Add registers a task to be invoked on every tick, in registration order.
// Must be called before Run starts (the task list itself is not
// synchronized — registration is an orchestration-thread-only operation,
// mirroring the channel bind/release contract in §4.5).
func (l *Loop) Add(name string, fn Task) {
	l.tasks = append(l.tasks, namedTask{name: name, fn: fn})
}

// Run blocks, firing every registered task once per tick, until Terminate
// is called. The runtime thread suspends only between ticks (§5): no task
// invocation here spans more than one tick's worth of work.
func (l *Loop) Run() {
	l.running.Store(true)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.runTasks()
		case <-l.done:
			l.running.Store(false)
			return
		}
	}
}

func (l *Loop) runTasks() {
	for _, t := range l.tasks {
		func(t namedTask) {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("runtime loop task panicked", zap.String("task", t.name), zap.Any("panic", r))
				}
			}()
			t.fn()
		}(t)
	}
}

// Running reports whether the loop's Run call is currently active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Terminate stops Run. Safe to call from any goroutine, any number of
// times, even before Run has started.
func (l *Loop) Terminate() {
	l.terminated.Do(func() { close(l.done) })
}
