package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"ringtimer/internal/core/ringtimer"
)

// Options tunes the interactive session.
type Options struct {
	// AutoStart starts the run as soon as the program is up.
	AutoStart bool
	// ExitOnFinish quits after the first finished notification.
	ExitOnFinish bool
}

// Run starts the Bubble Tea TUI program, wiring the engine event stream to messages.
func Run(ctx context.Context, engine *ringtimer.Engine, controls Controls, options Options) error {
	events := engine.Subscribe(channelBufferSize)

	model := NewModel(engine, controls, events)
	model.exitOnFinish = options.ExitOnFinish

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Silence logs during TUI to avoid corrupting the view.
	prevOut := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(prevOut)

	if options.AutoStart {
		if err := controls.Start(); err != nil {
			return err
		}
	}

	_, err := p.Run()
	return err
}
