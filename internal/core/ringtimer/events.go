package ringtimer

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// EventType names a notification channel.
type EventType string

const (
	EventTimeDataChanged EventType = "time_data_changed"
	EventPhaseChanged    EventType = "phase_changed"
	EventInitialized     EventType = "initialized"
	EventPauseTick       EventType = "pause_tick"
	EventFinished        EventType = "finished"
	EventError           EventType = "error"
)

// Event is a trigger for observers. Phase and RunID describe the engine at
// publish time; current values are read through the engine getters.
type Event struct {
	Type  EventType
	Phase Phase
	RunID string
	Err   error
	At    time.Time
}

type listener struct {
	id uint64
	fn func(Event)
}

// Notifier fans events out to callbacks and channel subscribers.
// Events are delivered one at a time in publish order. An event published
// from inside a callback is queued behind the one being delivered; a publish
// from any other goroutine waits for the running delivery to end and then
// delivers on its own goroutine.
type Notifier struct {
	mu          sync.Mutex
	idle        *sync.Cond
	nextID      uint64
	listeners   map[EventType][]listener
	subscribers []chan Event
	queue       []Event
	delivering  bool
	deliverer   uint64
	closed      bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	notifier := &Notifier{listeners: make(map[EventType][]listener)}
	notifier.idle = sync.NewCond(&notifier.mu)
	return notifier
}

// Listen registers fn for one event type and returns its unsubscribe func.
func (notifier *Notifier) Listen(eventType EventType, fn func(Event)) func() {
	notifier.mu.Lock()
	notifier.nextID++
	id := notifier.nextID
	notifier.listeners[eventType] = append(notifier.listeners[eventType], listener{id: id, fn: fn})
	notifier.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			notifier.remove(eventType, id)
		})
	}
}

// Subscribe registers a channel receiving every event. Slow readers miss events.
func (notifier *Notifier) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.closed {
		close(ch)
		return ch
	}
	notifier.subscribers = append(notifier.subscribers, ch)
	return ch
}

// ListenerCount reports the callbacks registered for eventType.
func (notifier *Notifier) ListenerCount(eventType EventType) int {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return len(notifier.listeners[eventType])
}

// Publish delivers events synchronously on the calling goroutine. Called
// from a callback, it appends to the running delivery's queue instead.
// Callbacks must not block on another goroutine that publishes.
func (notifier *Notifier) Publish(events ...Event) {
	self := goroutineID()

	notifier.mu.Lock()
	for notifier.delivering && notifier.deliverer != self && !notifier.closed {
		notifier.idle.Wait()
	}
	if notifier.closed {
		notifier.mu.Unlock()
		return
	}
	notifier.queue = append(notifier.queue, events...)
	if notifier.delivering {
		notifier.mu.Unlock()
		return
	}
	notifier.delivering = true
	notifier.deliverer = self

	for len(notifier.queue) > 0 && !notifier.closed {
		event := notifier.queue[0]
		notifier.queue = notifier.queue[1:]
		callbacks := append([]listener(nil), notifier.listeners[event.Type]...)
		channels := append([]chan Event(nil), notifier.subscribers...)
		notifier.mu.Unlock()

		for _, callback := range callbacks {
			callback.fn(event)
		}
		for _, ch := range channels {
			select {
			case ch <- event:
			default:
			}
		}

		notifier.mu.Lock()
	}
	notifier.queue = nil
	notifier.delivering = false
	notifier.deliverer = 0
	if notifier.closed {
		notifier.closeSubscribersLocked()
	}
	notifier.idle.Broadcast()
	notifier.mu.Unlock()
}

// Close drops pending events and closes subscriber channels.
func (notifier *Notifier) Close() {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.closed {
		return
	}
	notifier.closed = true
	notifier.queue = nil
	if !notifier.delivering {
		notifier.closeSubscribersLocked()
	}
	notifier.idle.Broadcast()
}

func (notifier *Notifier) closeSubscribersLocked() {
	for _, ch := range notifier.subscribers {
		close(ch)
	}
	notifier.subscribers = nil
}

func (notifier *Notifier) remove(eventType EventType, id uint64) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	current := notifier.listeners[eventType]
	for i, entry := range current {
		if entry.id == id {
			kept := make([]listener, 0, len(current)-1)
			kept = append(kept, current[:i]...)
			kept = append(kept, current[i+1:]...)
			notifier.listeners[eventType] = kept
			return
		}
	}
}

// goroutineID parses the current goroutine number from the
// "goroutine N [status]:" header of its stack trace.
func goroutineID() uint64 {
	var buf [64]byte
	header := buf[:runtime.Stack(buf[:], false)]
	fields := bytes.Fields(header)
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
