package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrLoopStopped is returned when posting to a loop that is no longer running
var ErrLoopStopped = errors.New("event loop stopped")

// Task is a unit of work executed on the loop goroutine
type Task func(ctx context.Context)

// Loop runs tasks one at a time on a single goroutine. Every task runs to
// completion before the next one starts, so state touched only from tasks
// needs no locking.
type Loop struct {
	queue chan Task
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop with the given queue capacity
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 256
	}
	return &Loop{
		queue: make(chan Task, capacity),
		done:  make(chan struct{}),
	}
}

// Post enqueues a task. It blocks while the queue is full and fails once the loop has stopped.
func (l *Loop) Post(task Task) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.queue <- task:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Call posts a task and waits for it to finish
func (l *Loop) Call(ctx context.Context, task Task) error {
	finished := make(chan struct{})
	if err := l.Post(func(ctx context.Context) {
		defer close(finished)
		task(ctx)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Run drains the queue until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.queue:
			l.run(ctx, task)
		}
	}
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Event loop task panicked")
		}
	}()
	task(ctx)
}

// Timer is a scheduled task that can be cancelled
type Timer interface {
	// Stop prevents the task from running. It is safe to call more than once.
	Stop()
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() {
	t.stopped.Store(true)
	t.t.Stop()
}

// AfterFunc runs task on the loop after d. Stopping the timer turns the task
// into a no-op even if it has already been queued.
func (l *Loop) AfterFunc(d time.Duration, task Task) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		if lt.stopped.Load() {
			return
		}
		err := l.Post(func(ctx context.Context) {
			if lt.stopped.Load() {
				return
			}
			task(ctx)
		})
		if err != nil {
			log.WithError(err).Debug("Dropped timer task")
		}
	})
	return lt
}

// Every runs task on the loop every d until the returned function is called
func (l *Loop) Every(d time.Duration, task Task) func() {
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := l.Post(task); err != nil {
					return
				}
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(quit) })
	}
}
