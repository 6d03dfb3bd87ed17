package host

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ringtimer/internal/core/ringtimer"
)

// ErrRunning is returned when settings change while a run is in progress.
var ErrRunning = errors.New("ring timer is running")

// Status is the host-side recording state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
)

// Active reports whether a run is recording or paused.
func (status Status) Active() bool {
	return status == StatusRecording || status == StatusPaused
}

// Buttons holds the enablement of the host controls.
type Buttons struct {
	Start    bool
	Pause    bool
	Stop     bool
	Steppers bool
}

// Timer is the part of the engine the controller drives.
type Timer interface {
	SetWarmUpFor(time.Duration)
	SetCountdownFor(time.Duration)
	SetWarningFor(time.Duration)
	InitTimer() error
	Dispatch(action string) (bool, error)
	OnFinished(fn func()) func()
}

// Controller maps user controls onto engine actions and keeps
// button state in step with the run. Calls into the timer are made
// without holding mu, so timer callbacks may re-enter the controller.
type Controller struct {
	// commands serializes user commands; it is never taken by timer callbacks.
	commands    sync.Mutex
	mu          sync.Mutex
	timer       Timer
	settings    Settings
	status      Status
	lastAction  ringtimer.Action
	finishes    uint64
	onFinished  []func()
	unsubscribe func()
	log         *logrus.Entry
}

// NewController forwards settings to the timer, initializes it and
// starts listening for finished notifications.
func NewController(timer Timer, settings Settings, log *logrus.Entry) (*Controller, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	controller := &Controller{
		timer:      timer,
		settings:   settings,
		status:     StatusIdle,
		lastAction: ringtimer.ActionInit,
		log:        log.WithField("component", "host"),
	}

	if err := controller.apply(settings); err != nil {
		return nil, err
	}

	controller.unsubscribe = timer.OnFinished(controller.handleFinished)
	return controller, nil
}

// Start begins a run unless one is already active.
func (controller *Controller) Start() error {
	controller.commands.Lock()
	defer controller.commands.Unlock()

	if controller.Status().Active() {
		return nil
	}
	return controller.dispatch(ringtimer.ActionStart, StatusRecording)
}

// TogglePause pauses a recording run or resumes a paused one.
func (controller *Controller) TogglePause() error {
	controller.commands.Lock()
	defer controller.commands.Unlock()

	switch controller.Status() {
	case StatusRecording:
		return controller.dispatch(ringtimer.ActionPause, StatusPaused)
	case StatusPaused:
		return controller.dispatch(ringtimer.ActionUnPause, StatusRecording)
	}
	return nil
}

// Stop aborts the active run.
func (controller *Controller) Stop() error {
	controller.commands.Lock()
	defer controller.commands.Unlock()

	if !controller.Status().Active() {
		return nil
	}
	return controller.dispatch(ringtimer.ActionStop, StatusStopped)
}

// Step adjusts one setting by steps seconds and re-initializes the timer.
func (controller *Controller) Step(field Field, steps int) error {
	controller.commands.Lock()
	defer controller.commands.Unlock()

	if controller.Status().Active() {
		return ErrRunning
	}
	return controller.applyUnlocked(controller.Settings().Step(field, steps))
}

// ApplySettings replaces all settings and re-initializes the timer.
func (controller *Controller) ApplySettings(settings Settings) error {
	controller.commands.Lock()
	defer controller.commands.Unlock()

	if controller.Status().Active() {
		return ErrRunning
	}
	return controller.applyUnlocked(settings)
}

// OnFinished registers fn to run once per completed or stopped run.
func (controller *Controller) OnFinished(fn func()) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.onFinished = append(controller.onFinished, fn)
}

// Close stops listening to the timer.
func (controller *Controller) Close() {
	controller.mu.Lock()
	unsubscribe := controller.unsubscribe
	controller.unsubscribe = nil
	controller.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (controller *Controller) Status() Status {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.status
}

func (controller *Controller) Settings() Settings {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.settings
}

// LastAction returns the most recent action forwarded to the timer.
func (controller *Controller) LastAction() ringtimer.Action {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.lastAction
}

// Buttons reports which controls are enabled for the current status.
func (controller *Controller) Buttons() Buttons {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	active := controller.status.Active()
	return Buttons{
		Start:    !active,
		Pause:    active,
		Stop:     active,
		Steppers: !active,
	}
}

func (controller *Controller) handleFinished() {
	controller.mu.Lock()
	controller.finishes++
	controller.status = StatusStopped
	controller.lastAction = ringtimer.ActionStopped
	handlers := append([]func(){}, controller.onFinished...)
	controller.mu.Unlock()

	if _, err := controller.timer.Dispatch(string(ringtimer.ActionStopped)); err != nil {
		controller.log.WithError(err).Warn("acknowledge finished run")
	}
	controller.log.Info("ring timer finished")

	for _, handler := range handlers {
		handler()
	}
}

// dispatch forwards action to the timer and commits next once accepted.
// A finish observed during the call is newer than action and wins.
func (controller *Controller) dispatch(action ringtimer.Action, next Status) error {
	controller.mu.Lock()
	finishes := controller.finishes
	controller.mu.Unlock()

	accepted, err := controller.timer.Dispatch(string(action))
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", action, err)
	}
	if !accepted {
		controller.log.WithField("action", action).Debug("action ignored by ring timer")
		return nil
	}

	controller.mu.Lock()
	if controller.finishes == finishes {
		controller.lastAction = action
		controller.status = next
	}
	controller.mu.Unlock()

	controller.log.WithFields(logrus.Fields{
		"action": action,
		"status": next,
	}).Debug("action forwarded")
	return nil
}

func (controller *Controller) apply(settings Settings) error {
	controller.commands.Lock()
	defer controller.commands.Unlock()
	return controller.applyUnlocked(settings)
}

// applyUnlocked runs with commands held and mu released.
func (controller *Controller) applyUnlocked(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	controller.timer.SetWarmUpFor(settings.WarmUpFor)
	controller.timer.SetCountdownFor(settings.CountdownFor)
	controller.timer.SetWarningFor(settings.WarningFor)
	if err := controller.timer.InitTimer(); err != nil {
		return fmt.Errorf("init ring timer: %w", err)
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.settings = settings
	controller.lastAction = ringtimer.ActionInit
	if controller.status == StatusStopped {
		controller.status = StatusIdle
	}
	return nil
}
