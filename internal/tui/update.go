package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/host"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { // nolint:ireturn
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = x.Width
		m.barWidth = min(max(x.Width-labelColumnWidth-2, 1), maxBarWidth)
		m.help.Width = x.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(x)

	case eventMsg:
		m.refresh()
		m.now = x.Event.At
		switch x.Event.Type {
		case ringtimer.EventError:
			m.err = x.Event.Err
		case ringtimer.EventFinished:
			m.finished++
			m.notice = ""
			if m.exitOnFinish {
				m.quitting = true
				return m, tea.Quit
			}
		}
		return m, m.listenForEvents()

	case eventsClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) { // nolint:ireturn
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Start):
		err = m.controls.Start()
	case key.Matches(msg, m.keys.Pause):
		err = m.controls.TogglePause()
	case key.Matches(msg, m.keys.Stop):
		err = m.controls.Stop()
	case key.Matches(msg, m.keys.WarmUpUp):
		err = m.controls.Step(host.FieldWarmUp, 1)
	case key.Matches(msg, m.keys.WarmUpDown):
		err = m.controls.Step(host.FieldWarmUp, -1)
	case key.Matches(msg, m.keys.CountdownUp):
		err = m.controls.Step(host.FieldCountdown, 1)
	case key.Matches(msg, m.keys.CountdownDown):
		err = m.controls.Step(host.FieldCountdown, -1)
	case key.Matches(msg, m.keys.WarningUp):
		err = m.controls.Step(host.FieldWarning, 1)
	case key.Matches(msg, m.keys.WarningDown):
		err = m.controls.Step(host.FieldWarning, -1)
	default:
		return m, nil
	}

	m.notice = ""
	if errors.Is(err, host.ErrRunning) {
		m.notice = "settings are locked while the timer runs"
		err = nil
	}
	if err != nil {
		m.err = err
	}
	m.refresh()
	return m, nil
}
