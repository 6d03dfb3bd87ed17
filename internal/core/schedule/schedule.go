// Package schedule provides the clock and periodic-task primitives the timer
// engine runs on. Production code uses the ticker-backed clock; tests drive
// a Manual clock forward explicitly.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock reports the current time and runs periodic tasks.
type Clock interface {
	Now() time.Time
	// Every calls task once per interval until the returned handle is cancelled.
	Every(interval time.Duration, task func(now time.Time)) Handle
}

// Handle cancels a periodic task. Cancel is idempotent and no invocation
// starts after it returns.
type Handle interface {
	Cancel()
}

type realClock struct{}

// NewRealClock returns a Clock backed by time.Ticker.
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Every(interval time.Duration, task func(now time.Time)) Handle {
	handle := &tickerHandle{stopCh: make(chan struct{})}
	go handle.run(interval, task)
	return handle
}

type tickerHandle struct {
	once      sync.Once
	cancelled atomic.Bool
	stopCh    chan struct{}
}

func (handle *tickerHandle) run(interval time.Duration, task func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-handle.stopCh:
			return
		case tickTime := <-ticker.C:
			if handle.cancelled.Load() {
				return
			}
			task(tickTime)
		}
	}
}

func (handle *tickerHandle) Cancel() {
	handle.once.Do(func() {
		handle.cancelled.Store(true)
		close(handle.stopCh)
	})
}
