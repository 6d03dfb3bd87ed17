package ringtimer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ringtimer/internal/core/model"
	"ringtimer/internal/core/schedule"
	"ringtimer/internal/core/timeunit"
)

// Options contains runtime collaborators for the Engine.
type Options struct {
	Clock  schedule.Clock
	Logger *logrus.Entry
}

// RunState is the deadline bookkeeping of the current run.
type RunState struct {
	RunID              string
	CountdownToTime    time.Time
	CountdownRemaining time.Duration
	WarmUpRemaining    time.Duration
}

// Engine is the ring timer state machine. Commands, ticks and getters may be
// called from any goroutine; state changes are serialized by the engine and
// observers are notified after each change is complete.
type Engine struct {
	mu            sync.Mutex
	base          model.RingTimerConfig
	pending       model.Overrides
	config        model.RingTimerConfig
	phase         Phase
	previousPhase Phase
	run           RunState
	units         timeunit.Table
	initialized   bool
	closed        bool
	err           error

	clock    schedule.Clock
	loop     schedule.Handle
	loopGen  uint64
	notifier *Notifier
	log      *logrus.Entry
}

// New creates an Engine. InitTimer must be called before StartTimer.
func New(config model.RingTimerConfig, options Options) *Engine {
	if options.Clock == nil {
		options.Clock = schedule.NewRealClock()
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger().WithField("component", "ringtimer")
	}
	if config.UpdateInterval == 0 {
		config.UpdateInterval = model.DefaultUpdateInterval
	}

	return &Engine{
		base:          config,
		config:        config,
		phase:         PhaseReady,
		previousPhase: PhaseReady,
		clock:         options.Clock,
		notifier:      NewNotifier(),
		log:           options.Logger,
	}
}

// SetWarmUpFor stores the warm-up length used by the next InitTimer.
func (engine *Engine) SetWarmUpFor(duration time.Duration) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.pending.WarmUpFor = &duration
}

// SetCountdownFor stores the countdown length used by the next InitTimer.
func (engine *Engine) SetCountdownFor(duration time.Duration) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.pending.CountdownFor = &duration
}

// SetWarningFor stores the warning window used by the next InitTimer.
func (engine *Engine) SetWarningFor(duration time.Duration) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.pending.WarningFor = &duration
}

// InitTimer applies pending settings and moves the engine to ready with a
// freshly built unit table. Any running loop is cancelled.
func (engine *Engine) InitTimer() error {
	engine.mu.Lock()
	config := engine.base.Merge(engine.pending)
	if err := config.Validate(); err != nil {
		engine.mu.Unlock()
		engine.log.WithError(err).Warn("rejected ring timer config")
		return err
	}

	engine.cancelLoopLocked()
	engine.config = config
	engine.err = nil
	previous := engine.phase
	engine.readyLocked(engine.clock.Now())
	engine.log.WithFields(logrus.Fields{
		"run_id":    engine.run.RunID,
		"countdown": config.CountdownFor,
		"warm_up":   config.WarmUpFor,
		"warning":   config.WarningFor,
		"units":     len(engine.units),
	}).Debug("ring timer initialised")

	events := []EventType{EventInitialized}
	if previous != PhaseReady {
		events = append(events, EventPhaseChanged)
	}
	events = append(events, EventTimeDataChanged)
	published := engine.eventsLocked(events...)
	engine.mu.Unlock()

	engine.notifier.Publish(published...)
	return nil
}

// StartTimer begins a run. It is a no-op unless the engine is ready.
func (engine *Engine) StartTimer() bool {
	return engine.command(ActionStart, func(now time.Time) {
		engine.run.CountdownToTime = now.Add(engine.config.Total())
	})
}

// PauseTimer freezes the remaining time. It is a no-op unless time is running.
func (engine *Engine) PauseTimer() bool {
	return engine.command(ActionPause, func(now time.Time) {
		engine.captureRemainingLocked(now)
		engine.previousPhase = engine.phase
	})
}

// UnPauseTimer resumes from the frozen remaining time. It is a no-op unless paused.
func (engine *Engine) UnPauseTimer() bool {
	return engine.command(ActionUnPause, func(now time.Time) {
		engine.run.CountdownToTime = now.Add(engine.run.CountdownRemaining)
	})
}

// StopTimer ends the run early; the next tick resets the engine and
// publishes finished. It is a no-op unless a run is in progress.
func (engine *Engine) StopTimer() bool {
	return engine.command(ActionStop, nil)
}

// Dispatch applies a host command string. Acknowledgement actions are
// accepted without effect. The bool reports whether the phase changed.
func (engine *Engine) Dispatch(value string) (bool, error) {
	action, err := ParseAction(value)
	if err != nil {
		return false, err
	}
	switch action {
	case ActionStart:
		return engine.StartTimer(), nil
	case ActionPause:
		return engine.PauseTimer(), nil
	case ActionUnPause:
		return engine.UnPauseTimer(), nil
	case ActionStop:
		return engine.StopTimer(), nil
	default:
		return false, nil
	}
}

// Close cancels the loop, drops callbacks and closes subscriber channels.
func (engine *Engine) Close() {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.closed = true
	engine.cancelLoopLocked()
	engine.mu.Unlock()

	engine.notifier.Close()
}

// command runs the shared re-arm sequence for a phase-changing command:
// cancel the loop, apply the transition, install a new loop.
func (engine *Engine) command(action Action, apply func(now time.Time)) bool {
	engine.mu.Lock()
	next, ok := nextPhase(action, engine.phase, engine.previousPhase)
	if !ok || !engine.initialized || engine.closed {
		engine.log.WithFields(logrus.Fields{
			"action": action,
			"phase":  engine.phase,
		}).Debug("ignored ring timer command")
		engine.mu.Unlock()
		return false
	}

	now := engine.clock.Now()
	engine.cancelLoopLocked()
	if apply != nil {
		apply(now)
	}
	engine.phase = next
	engine.startLoopLocked()
	engine.log.WithFields(logrus.Fields{
		"action": action,
		"phase":  next,
		"run_id": engine.run.RunID,
	}).Debug("ring timer command")
	published := engine.eventsLocked(EventPhaseChanged)
	engine.mu.Unlock()

	engine.notifier.Publish(published...)
	return true
}

func (engine *Engine) startLoopLocked() {
	engine.loopGen++
	generation := engine.loopGen
	engine.loop = engine.clock.Every(engine.config.UpdateInterval, func(now time.Time) {
		engine.tick(generation, now)
	})
}

func (engine *Engine) cancelLoopLocked() {
	engine.loopGen++
	if engine.loop != nil {
		engine.loop.Cancel()
		engine.loop = nil
	}
}

func (engine *Engine) tick(generation uint64, now time.Time) {
	engine.mu.Lock()
	if generation != engine.loopGen || engine.closed {
		engine.mu.Unlock()
		return
	}

	var events []EventType
	switch engine.phase {
	case PhaseFinished, PhaseStopped:
		engine.finish(now)
		return
	case PhasePaused:
		events = []EventType{EventPauseTick}
	case PhaseWarmUp, PhaseCountdown, PhaseWarning:
		events = engine.advanceLocked(now)
	case PhaseReady:
		engine.cancelLoopLocked()
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownPhase, engine.phase)
		engine.cancelLoopLocked()
		engine.err = err
		engine.log.WithError(err).WithField("run_id", engine.run.RunID).Error("ring timer halted")
		published := engine.eventsLocked(EventError)
		for i := range published {
			published[i].Err = err
		}
		engine.mu.Unlock()
		engine.notifier.Publish(published...)
		return
	}

	published := engine.eventsLocked(events...)
	engine.mu.Unlock()
	engine.notifier.Publish(published...)
}

// finish is entered locked from a tick in a terminal phase. Observers see
// the zeroed table first; the reset to ready follows unless a command
// (InitTimer or Close) intervened while the zeroed state was published.
func (engine *Engine) finish(now time.Time) {
	engine.cancelLoopLocked()
	halted := engine.loopGen
	engine.run.CountdownRemaining = 0
	engine.run.WarmUpRemaining = 0
	engine.units.Decompose(0, true)
	endedAs := engine.phase
	finishedRun := engine.run.RunID
	published := engine.eventsLocked(EventTimeDataChanged)
	engine.mu.Unlock()
	engine.notifier.Publish(published...)

	engine.mu.Lock()
	if engine.loopGen != halted || engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.readyLocked(now)
	engine.log.WithFields(logrus.Fields{
		"run_id": finishedRun,
		"phase":  endedAs,
	}).Info("ring timer finished")
	published = engine.eventsLocked(EventPhaseChanged, EventTimeDataChanged, EventFinished)
	engine.mu.Unlock()
	engine.notifier.Publish(published...)
}

// advanceLocked recomputes remaining time, derives the phase and decomposes
// the displayed value.
func (engine *Engine) advanceLocked(now time.Time) []EventType {
	var events []EventType
	engine.captureRemainingLocked(now)
	remaining := engine.run.CountdownRemaining

	next := DerivePhase(remaining, engine.config)
	if next != engine.phase {
		engine.log.WithFields(logrus.Fields{
			"run_id":    engine.run.RunID,
			"from":      engine.phase,
			"to":        next,
			"remaining": remaining,
		}).Debug("ring timer phase")
		engine.phase = next
		events = append(events, EventPhaseChanged)
	}

	display := remaining
	if engine.phase == PhaseWarmUp {
		display = min(remaining, engine.config.CountdownFor)
	}
	engine.units.Decompose(display, engine.phase.Terminal())
	return append(events, EventTimeDataChanged)
}

func (engine *Engine) captureRemainingLocked(now time.Time) {
	remaining := max(0, engine.run.CountdownToTime.Sub(now))
	engine.run.CountdownRemaining = remaining
	engine.run.WarmUpRemaining = max(0, remaining-engine.config.CountdownFor)
}

// readyLocked rebuilds run state and the unit table for a new run.
func (engine *Engine) readyLocked(now time.Time) {
	table := timeunit.NewTable()
	engine.units = table.Prune(table.InitialUnitCount(engine.config.CountdownFor))
	engine.phase = PhaseReady
	engine.previousPhase = PhaseReady
	engine.run = RunState{
		RunID:              uuid.NewString(),
		CountdownToTime:    now.Add(engine.config.Total()),
		CountdownRemaining: engine.config.Total(),
		WarmUpRemaining:    engine.config.WarmUpFor,
	}
	engine.units.Decompose(engine.config.CountdownFor, false)
	engine.initialized = true
}

func (engine *Engine) eventsLocked(types ...EventType) []Event {
	at := engine.clock.Now()
	events := make([]Event, 0, len(types))
	for _, eventType := range types {
		events = append(events, Event{
			Type:  eventType,
			Phase: engine.phase,
			RunID: engine.run.RunID,
			At:    at,
		})
	}
	return events
}

// Phase returns the current phase.
func (engine *Engine) Phase() Phase {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.phase
}

// PreviousPhase returns the phase restored by UnPauseTimer.
func (engine *Engine) PreviousPhase() Phase {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.previousPhase
}

// TimeData returns a copy of the retained units, finest first.
func (engine *Engine) TimeData() timeunit.Table {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.units.Snapshot()
}

// TimeUnitCount returns the number of retained units.
func (engine *Engine) TimeUnitCount() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return len(engine.units)
}

// WarmUpRemaining returns how much of the warm-up window is left.
func (engine *Engine) WarmUpRemaining() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.run.WarmUpRemaining
}

// CountdownRemaining returns the time left until the deadline as of the last update.
func (engine *Engine) CountdownRemaining() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.run.CountdownRemaining
}

// RunState returns a copy of the deadline bookkeeping.
func (engine *Engine) RunState() RunState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.run
}

// Config returns the configuration of the current run.
func (engine *Engine) Config() model.RingTimerConfig {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config
}

// Err returns the error that halted the loop, if any. InitTimer clears it.
func (engine *Engine) Err() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.err
}

// OnTimeDataChanged registers fn for unit table updates.
func (engine *Engine) OnTimeDataChanged(fn func()) func() {
	return engine.listen(EventTimeDataChanged, fn)
}

// OnPhaseChanged registers fn for phase transitions.
func (engine *Engine) OnPhaseChanged(fn func()) func() {
	return engine.listen(EventPhaseChanged, fn)
}

// OnInitialized registers fn for InitTimer completions.
func (engine *Engine) OnInitialized(fn func()) func() {
	return engine.listen(EventInitialized, fn)
}

// OnPauseTick registers fn for ticks while paused.
func (engine *Engine) OnPauseTick(fn func()) func() {
	return engine.listen(EventPauseTick, fn)
}

// OnFinished registers fn for the end of a run, natural or stopped.
func (engine *Engine) OnFinished(fn func()) func() {
	return engine.listen(EventFinished, fn)
}

// OnError registers fn for internal errors that halt the loop.
func (engine *Engine) OnError(fn func(error)) func() {
	return engine.notifier.Listen(EventError, func(event Event) {
		fn(event.Err)
	})
}

// Subscribe returns a channel receiving every event. Slow readers miss
// events; the channel is closed by Close.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	return engine.notifier.Subscribe(buffer)
}

func (engine *Engine) listen(eventType EventType, fn func()) func() {
	return engine.notifier.Listen(eventType, func(Event) {
		fn()
	})
}
