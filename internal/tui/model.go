package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/core/timeunit"
	"ringtimer/internal/host"
)

// Source is the read side of the engine the view renders from.
type Source interface {
	Phase() ringtimer.Phase
	TimeData() timeunit.Table
	WarmUpRemaining() time.Duration
	Err() error
}

// Controls is the host controller the key bindings drive.
type Controls interface {
	Start() error
	TogglePause() error
	Stop() error
	Step(field host.Field, steps int) error
	Status() host.Status
	Settings() host.Settings
	Buttons() host.Buttons
}

// Model is the root Bubble Tea model.
type Model struct {
	source   Source
	controls Controls
	events   <-chan ringtimer.Event

	phase    ringtimer.Phase
	units    timeunit.Table
	warmUp   time.Duration
	status   host.Status
	settings host.Settings
	buttons  host.Buttons
	now      time.Time
	err      error
	notice   string
	finished int

	// exitOnFinish quits after the first completed run.
	exitOnFinish bool

	width    int
	barWidth int
	quitting bool

	help help.Model
	keys keyMap
}

// NewModel constructs a Model with a snapshot of the engine state.
func NewModel(source Source, controls Controls, events <-chan ringtimer.Event) Model {
	m := Model{
		source:   source,
		controls: controls,
		events:   events,
		now:      time.Now(),
		barWidth: defaultBarWidth,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.listenForEvents()
}

// listenForEvents returns a Tea command that waits for the next engine event.
func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{Event: event}
	}
}

// refresh pulls the current engine and controller state.
func (m *Model) refresh() {
	m.phase = m.source.Phase()
	m.units = m.source.TimeData()
	m.warmUp = m.source.WarmUpRemaining()
	m.status = m.controls.Status()
	m.settings = m.controls.Settings()
	m.buttons = m.controls.Buttons()
	if err := m.source.Err(); err != nil {
		m.err = err
	}
}
