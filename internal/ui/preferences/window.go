package preferences

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ringtimer/internal/host"
)

// Callbacks defines preferences handlers. OnStep returns the settings
// after the step so the window can show the clamped value.
type Callbacks struct {
	OnStep func(field host.Field, steps int) (host.Settings, error)
	OnSave func(host.Settings) error
}

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  host.Settings
	callbacks Callbacks
	values    map[host.Field]*widget.Label
	steppers  []*widget.Button
	interval  *widget.Entry
	errLabel  *widget.Label
	saveBtn   *widget.Button
}

var stepperFields = []struct {
	field host.Field
	title string
}{
	{field: host.FieldWarmUp, title: "Warm-up"},
	{field: host.FieldCountdown, title: "Countdown"},
	{field: host.FieldWarning, title: "Warning"},
}

// New creates a preferences window.
func New(app fyne.App, settings host.Settings, callbacks Callbacks) *Window {
	window := app.NewWindow("Ring Timer Settings")

	prefs := &Window{
		window:    window,
		settings:  settings,
		callbacks: callbacks,
		values:    make(map[host.Field]*widget.Label, len(stepperFields)),
		interval:  widget.NewEntry(),
		errLabel:  widget.NewLabel(""),
	}

	rows := []fyne.CanvasObject{
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	}
	for _, entry := range stepperFields {
		field := entry.field
		value := widget.NewLabel("")
		prefs.values[field] = value

		down := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() { prefs.step(field, -1) })
		up := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() { prefs.step(field, 1) })
		prefs.steppers = append(prefs.steppers, down, up)

		rows = append(rows, container.NewHBox(widget.NewLabel(entry.title), layout.NewSpacer(), down, value, up))
	}
	rows = append(rows,
		container.NewHBox(widget.NewLabel("Update interval"), layout.NewSpacer(), prefs.interval, widget.NewLabel("ms")),
		prefs.errLabel,
	)

	prefs.saveBtn = widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(prefs.saveBtn, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, container.NewVBox(rows...))
	window.SetContent(content)
	window.Resize(fyne.NewSize(360, 280))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings host.Settings) {
	prefs.settings = settings
	for field, label := range prefs.values {
		label.SetText(formatSeconds(settings.Value(field)))
	}
	prefs.interval.SetText(strconv.FormatInt(settings.UpdateInterval.Milliseconds(), 10))
}

// SetLocked disables editing while a run is active.
func (prefs *Window) SetLocked(locked bool) {
	for _, button := range prefs.steppers {
		if locked {
			button.Disable()
		} else {
			button.Enable()
		}
	}
	if locked {
		prefs.saveBtn.Disable()
		prefs.errLabel.SetText("Settings are locked while the timer runs.")
		return
	}
	prefs.saveBtn.Enable()
	prefs.errLabel.SetText("")
}

// Settings returns the values currently shown.
func (prefs *Window) Settings() host.Settings {
	return prefs.settings
}

func (prefs *Window) step(field host.Field, steps int) {
	if prefs.callbacks.OnStep == nil {
		prefs.UpdateSettings(prefs.settings.Step(field, steps))
		return
	}
	updated, err := prefs.callbacks.OnStep(field, steps)
	if err != nil {
		prefs.errLabel.SetText(err.Error())
		return
	}
	prefs.errLabel.SetText("")
	prefs.UpdateSettings(updated)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings
	if millis, ok := parsePositiveInt(prefs.interval.Text); ok {
		settings.UpdateInterval = time.Duration(millis) * time.Millisecond
	} else {
		prefs.errLabel.SetText(fmt.Sprintf("invalid update interval %q", prefs.interval.Text))
		return
	}

	if prefs.callbacks.OnSave != nil {
		if err := prefs.callbacks.OnSave(settings); err != nil {
			prefs.errLabel.SetText(err.Error())
			return
		}
	}
	prefs.errLabel.SetText("")
	prefs.settings = settings
	prefs.window.Hide()
}

func formatSeconds(value time.Duration) string {
	return fmt.Sprintf("%.0fs", value.Seconds())
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
