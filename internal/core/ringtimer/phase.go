package ringtimer

import (
	"errors"
	"time"

	"ringtimer/internal/core/model"
)

// ErrUnknownPhase indicates the engine reached a phase it has no handling for.
var ErrUnknownPhase = errors.New("unknown ring timer phase")

// Phase is the current stage of a run.
type Phase string

const (
	PhaseReady     Phase = "ready"
	PhaseWarmUp    Phase = "warmup"
	PhaseCountdown Phase = "countdown"
	PhaseWarning   Phase = "warning"
	PhasePaused    Phase = "paused"
	PhaseStopped   Phase = "stopped"
	PhaseFinished  Phase = "finished"
)

// Valid reports whether phase is one of the known phases.
func (phase Phase) Valid() bool {
	switch phase {
	case PhaseReady, PhaseWarmUp, PhaseCountdown, PhaseWarning,
		PhasePaused, PhaseStopped, PhaseFinished:
		return true
	}
	return false
}

// Running reports whether time is decaying in this phase.
func (phase Phase) Running() bool {
	return phase == PhaseWarmUp || phase == PhaseCountdown || phase == PhaseWarning
}

// Terminal reports whether the next tick resets the run.
func (phase Phase) Terminal() bool {
	return phase == PhaseFinished || phase == PhaseStopped
}

func (phase Phase) String() string {
	return string(phase)
}

// DerivePhase maps the time left before the deadline onto a running phase.
//
//	remaining > countdown             warmup
//	warning < remaining <= countdown  countdown
//	interval < remaining <= warning   warning
//	remaining <= interval             finished
func DerivePhase(remaining time.Duration, config model.RingTimerConfig) Phase {
	if remaining < 0 {
		remaining = 0
	}
	switch {
	case remaining > config.CountdownFor:
		return PhaseWarmUp
	case remaining > config.WarningFor:
		return PhaseCountdown
	case remaining > config.UpdateInterval:
		return PhaseWarning
	default:
		return PhaseFinished
	}
}
