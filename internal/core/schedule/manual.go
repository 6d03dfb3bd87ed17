package schedule

import (
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance is called. Due tasks run
// synchronously on the caller's goroutine, in deadline order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
}

type manualTask struct {
	clock     *Manual
	interval  time.Duration
	next      time.Time
	task      func(now time.Time)
	cancelled bool
}

// NewManual creates a manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual time.
func (clock *Manual) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// Every registers a periodic task first due one interval from now.
func (clock *Manual) Every(interval time.Duration, task func(now time.Time)) Handle {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	clock.mu.Lock()
	defer clock.mu.Unlock()
	entry := &manualTask{
		clock:    clock,
		interval: interval,
		next:     clock.now.Add(interval),
		task:     task,
	}
	clock.tasks = append(clock.tasks, entry)
	return entry
}

// Advance moves the clock forward by delta, firing every task that falls due.
func (clock *Manual) Advance(delta time.Duration) {
	clock.mu.Lock()
	target := clock.now.Add(delta)
	for {
		entry := clock.nextDueLocked(target)
		if entry == nil {
			break
		}
		clock.now = entry.next
		entry.next = entry.next.Add(entry.interval)
		fireAt := clock.now
		clock.mu.Unlock()
		entry.task(fireAt)
		clock.mu.Lock()
	}
	clock.now = target
	clock.mu.Unlock()
}

// Set jumps the clock to an absolute time without firing tasks.
func (clock *Manual) Set(now time.Time) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = now
	for _, entry := range clock.tasks {
		if entry.next.Before(now) {
			entry.next = now.Add(entry.interval)
		}
	}
}

// Pending reports the number of live periodic tasks.
func (clock *Manual) Pending() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.pruneLocked()
	return len(clock.tasks)
}

func (clock *Manual) nextDueLocked(target time.Time) *manualTask {
	clock.pruneLocked()
	var due *manualTask
	for _, entry := range clock.tasks {
		if entry.next.After(target) {
			continue
		}
		if due == nil || entry.next.Before(due.next) {
			due = entry
		}
	}
	return due
}

func (clock *Manual) pruneLocked() {
	live := clock.tasks[:0]
	for _, entry := range clock.tasks {
		if !entry.cancelled {
			live = append(live, entry)
		}
	}
	clock.tasks = live
}

func (entry *manualTask) Cancel() {
	entry.clock.mu.Lock()
	defer entry.clock.mu.Unlock()
	entry.cancelled = true
}
