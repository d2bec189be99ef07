// Package runloop is the cooperative scheduler the page controllers run on.
// All controller state is owned by a single goroutine: anything that wants to
// touch it posts a task and the loop executes tasks strictly in arrival order.
// Network calls never run on the loop; a fetch spawns a goroutine that does the
// I/O and posts its continuation back when the response arrives.
package runloop

import (
	"context"
	"sync"
	"time"
)

type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn for execution on the loop goroutine. Safe from any
// goroutine. Posting to a stopped loop drops the task, matching the browser
// behavior of a response arriving after the page is gone.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes tasks until ctx is cancelled. It drains whatever is queued
// before returning so a final teardown task still runs.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			remaining := l.queue
			l.queue = nil
			l.mu.Unlock()
			for _, fn := range remaining {
				fn()
			}
			return
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

// Sync posts a barrier task and blocks until the loop has executed it, which
// means every task posted before Sync has run. Tests use this to observe
// controller state without racing the loop.
func (l *Loop) Sync() {
	done := make(chan struct{})
	l.Post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

// Ticker posts fn to the loop on every tick until Stop is called. It backs
// the live clock on the attendance page; controllers must stop it on
// teardown so no tick survives navigation away.
type Ticker struct {
	stop chan struct{}
	once sync.Once
}

func (l *Loop) NewTicker(interval time.Duration, fn func()) *Ticker {
	t := &Ticker{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				l.Post(fn)
			}
		}
	}()
	return t
}

func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
}
