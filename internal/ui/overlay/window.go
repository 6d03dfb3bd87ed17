package overlay

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/core/timeunit"
	"ringtimer/internal/host"
	"ringtimer/internal/ui/gauge"
)

// Config defines gauge window visuals.
type Config struct {
	Opacity uint8
	Title   string
}

// Callbacks defines gauge button handlers.
type Callbacks struct {
	OnStart       func()
	OnTogglePause func()
	OnStop        func()
}

// Frame is one render of the engine and controller state.
type Frame struct {
	Phase           ringtimer.Phase
	Units           timeunit.Table
	WarmUpRemaining time.Duration
	Now             time.Time
	Status          host.Status
	Buttons         host.Buttons
}

// Window shows the ring gauge with its controls.
type Window struct {
	app          fyne.App
	window       fyne.Window
	config       Config
	callbacks    Callbacks
	background   *canvas.Rectangle
	titleLabel   *canvas.Text
	phaseLabel   *canvas.Text
	timerLabel   *canvas.Text
	captionLabel *canvas.Text
	rings        *fyne.Container
	rows         []*ringRow
	startButton  *widget.Button
	pauseButton  *widget.Button
	stopButton   *widget.Button
}

const (
	ringBarHeight = float32(10)
	ringBarWidth  = float32(260)
	labelWidth    = float32(28)
)

// New creates the gauge window. All methods must run on the fyne main goroutine.
func New(app fyne.App, config Config, callbacks Callbacks) *Window {
	if config.Title == "" {
		config.Title = "Ring Timer"
	}
	window := app.NewWindow(config.Title)
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	titleLabel := canvas.NewText(config.Title, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 18

	phaseLabel := canvas.NewText("", gauge.PhaseColor(ringtimer.PhaseReady))
	phaseLabel.TextStyle = fyne.TextStyle{Bold: true}
	phaseLabel.TextSize = 14

	timerLabel := canvas.NewText("--", gauge.PhaseColor(ringtimer.PhaseReady))
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 28

	captionLabel := canvas.NewText("", gauge.PhaseColor(ringtimer.PhaseWarmUp))
	captionLabel.TextStyle = fyne.TextStyle{Italic: true}
	captionLabel.TextSize = 16

	overlay := &Window{
		app:          app,
		window:       window,
		config:       config,
		callbacks:    callbacks,
		background:   background,
		titleLabel:   titleLabel,
		phaseLabel:   phaseLabel,
		timerLabel:   timerLabel,
		captionLabel: captionLabel,
		rings:        container.NewVBox(),
	}

	overlay.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		if overlay.callbacks.OnStart != nil {
			overlay.callbacks.OnStart()
		}
	})
	overlay.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() {
		if overlay.callbacks.OnTogglePause != nil {
			overlay.callbacks.OnTogglePause()
		}
	})
	overlay.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		if overlay.callbacks.OnStop != nil {
			overlay.callbacks.OnStop()
		}
	})

	header := container.NewHBox(titleLabel, phaseLabel)
	buttons := container.NewHBox(overlay.startButton, overlay.pauseButton, overlay.stopButton)
	content := container.NewVBox(header, timerLabel, captionLabel, overlay.rings, buttons)
	window.SetContent(container.NewStack(background, container.NewPadded(content)))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return overlay
}

// Show displays the gauge window.
func (overlay *Window) Show() {
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide hides the gauge window.
func (overlay *Window) Hide() {
	overlay.window.Hide()
}

// Render applies one frame.
func (overlay *Window) Render(frame Frame) {
	phaseColor := gauge.PhaseColor(frame.Phase)
	if frame.Phase == ringtimer.PhasePaused {
		phaseColor.A = uint8(float64(phaseColor.A) * (0.5 + gauge.PauseAlpha(frame.Now)))
	}

	overlay.phaseLabel.Text = fmt.Sprintf("%s · %s", frame.Phase, frame.Status)
	overlay.phaseLabel.Color = phaseColor
	overlay.phaseLabel.Refresh()

	overlay.timerLabel.Text = gauge.Format(frame.Units)
	overlay.timerLabel.Color = phaseColor
	overlay.timerLabel.Refresh()

	overlay.captionLabel.Text = ""
	if frame.Phase == ringtimer.PhaseWarmUp {
		caption := gauge.PhaseColor(ringtimer.PhaseWarmUp)
		caption.A = uint8(0x40 + gauge.WarmUpAlpha(frame.WarmUpRemaining)*0xbf)
		overlay.captionLabel.Text = gauge.WarmUpMessage(frame.WarmUpRemaining)
		overlay.captionLabel.Color = caption
	}
	overlay.captionLabel.Refresh()

	overlay.renderRings(frame.Units, phaseColor)
	overlay.applyButtons(frame.Buttons)
}

// TimerText returns the rendered time, coarsest unit first.
func (overlay *Window) TimerText() string {
	return overlay.timerLabel.Text
}

// CaptionText returns the warm-up caption, empty outside warm-up.
func (overlay *Window) CaptionText() string {
	return overlay.captionLabel.Text
}

// RingCount returns the number of rings on screen.
func (overlay *Window) RingCount() int {
	return len(overlay.rows)
}

func (overlay *Window) renderRings(units timeunit.Table, fill color.NRGBA) {
	if len(overlay.rows) != len(units) {
		overlay.rows = overlay.rows[:0]
		objects := make([]fyne.CanvasObject, 0, len(units))
		for i := len(units) - 1; i >= 0; i-- {
			row := newRingRow(units[i].Label)
			overlay.rows = append(overlay.rows, row)
			objects = append(objects, row.container)
		}
		overlay.rings.Objects = objects
		overlay.rings.Refresh()
	}

	for i, row := range overlay.rows {
		row.update(units[len(units)-1-i], fill)
	}
}

func (overlay *Window) applyButtons(buttons host.Buttons) {
	setEnabled(overlay.startButton, buttons.Start)
	setEnabled(overlay.pauseButton, buttons.Pause)
	setEnabled(overlay.stopButton, buttons.Stop)
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}

type ringRow struct {
	container *fyne.Container
	label     *canvas.Text
	value     *canvas.Text
	track     *canvas.Rectangle
	fill      *canvas.Rectangle
	bar       *barLayout
	barBox    *fyne.Container
}

func newRingRow(label string) *ringRow {
	row := &ringRow{
		label: canvas.NewText(gauge.ShortLabel(label), color.NRGBA{R: 200, G: 200, B: 200, A: 255}),
		value: canvas.NewText("0", color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		track: canvas.NewRectangle(gauge.TrackColor()),
		fill:  canvas.NewRectangle(gauge.PhaseColor(ringtimer.PhaseReady)),
		bar:   &barLayout{},
	}
	row.value.TextStyle = fyne.TextStyle{Monospace: true}
	row.barBox = container.New(row.bar, row.track, row.fill)
	row.container = container.New(&rowLayout{}, row.label, row.barBox, row.value)
	return row
}

func (row *ringRow) update(unit timeunit.Unit, fill color.NRGBA) {
	row.bar.fraction = float32(unit.NormalizedFraction)
	row.fill.FillColor = fill
	row.value.Text = fmt.Sprintf("%d", unit.Value)
	row.value.Refresh()
	row.fill.Refresh()
	row.barBox.Refresh()
}

// barLayout stretches the track and sizes the fill to fraction of the width.
type barLayout struct {
	fraction float32
}

func (layout *barLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	y := (size.Height - ringBarHeight) / 2
	objects[0].Move(fyne.NewPos(0, y))
	objects[0].Resize(fyne.NewSize(size.Width, ringBarHeight))

	fraction := min(max(layout.fraction, 0), 1)
	objects[1].Move(fyne.NewPos(0, y))
	objects[1].Resize(fyne.NewSize(size.Width*fraction, ringBarHeight))
}

func (layout *barLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(ringBarWidth, ringBarHeight)
}

// rowLayout places a fixed-width label, a stretching bar and a trailing value.
type rowLayout struct{}

func (layout *rowLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 3 {
		return
	}
	label, bar, value := objects[0], objects[1], objects[2]

	valueSize := value.MinSize()
	labelSize := label.MinSize()
	gap := theme.Padding()

	label.Move(fyne.NewPos(0, (size.Height-labelSize.Height)/2))
	label.Resize(fyne.NewSize(labelWidth, labelSize.Height))

	barWidth := size.Width - labelWidth - valueSize.Width - gap*2
	if barWidth < 0 {
		barWidth = 0
	}
	bar.Move(fyne.NewPos(labelWidth+gap, 0))
	bar.Resize(fyne.NewSize(barWidth, size.Height))

	value.Move(fyne.NewPos(size.Width-valueSize.Width, (size.Height-valueSize.Height)/2))
	value.Resize(valueSize)
}

func (layout *rowLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 3 {
		return fyne.NewSize(0, 0)
	}
	barSize := objects[1].MinSize()
	valueSize := objects[2].MinSize()
	height := max(barSize.Height, valueSize.Height, objects[0].MinSize().Height)
	return fyne.NewSize(labelWidth+barSize.Width+valueSize.Width+theme.Padding()*2, height)
}
