package tui

import "ringtimer/internal/core/ringtimer"

// Message types for Bubble Tea update loop.

// eventMsg carries one engine notification.
type eventMsg struct{ Event ringtimer.Event }

// eventsClosedMsg signals that the engine closed its subscriber channel.
type eventsClosedMsg struct{}
