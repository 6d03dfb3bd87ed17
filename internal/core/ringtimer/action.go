package ringtimer

import (
	"errors"
	"fmt"
)

// ErrUnknownAction indicates a host command string the engine does not accept.
var ErrUnknownAction = errors.New("unknown ring timer action")

// Action is a host command. Values are case-sensitive.
type Action string

const (
	ActionStart   Action = "start"
	ActionPause   Action = "pause"
	ActionUnPause Action = "unPause"
	ActionStop    Action = "stop"
	// ActionStopped acknowledges a finished notification; it changes nothing.
	ActionStopped Action = "stopped"
	// ActionInit is the host's first action value; it changes nothing.
	ActionInit Action = "init"
)

// ParseAction validates a raw host command.
func ParseAction(value string) (Action, error) {
	action := Action(value)
	switch action {
	case ActionStart, ActionPause, ActionUnPause, ActionStop, ActionStopped, ActionInit:
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
}

type transition struct {
	from map[Phase]bool
	// to is empty when the command restores the phase held before pausing.
	to Phase
}

func from(phases ...Phase) map[Phase]bool {
	set := make(map[Phase]bool, len(phases))
	for _, phase := range phases {
		set[phase] = true
	}
	return set
}

var transitions = map[Action]transition{
	ActionStart:   {from: from(PhaseReady), to: PhaseWarmUp},
	ActionPause:   {from: from(PhaseWarmUp, PhaseCountdown, PhaseWarning), to: PhasePaused},
	ActionUnPause: {from: from(PhasePaused)},
	ActionStop:    {from: from(PhaseWarmUp, PhaseCountdown, PhaseWarning, PhasePaused), to: PhaseStopped},
}

// nextPhase returns the phase a command moves to, or false when the command
// does not apply in the current phase.
func nextPhase(action Action, current, previous Phase) (Phase, bool) {
	rule, ok := transitions[action]
	if !ok || !rule.from[current] {
		return current, false
	}
	if rule.to == "" {
		return previous, true
	}
	return rule.to, true
}
