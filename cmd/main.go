package main

import (
	"errors"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/host"
	"ringtimer/internal/platform"
	"ringtimer/internal/storage"
	"ringtimer/internal/ui/gauge"
	"ringtimer/internal/ui/overlay"
	"ringtimer/internal/ui/preferences"
	"ringtimer/internal/ui/tray"
)

const (
	appName         = "ringtimer"
	eventBufferSize = 64
	gaugeOpacity    = 0xd9
)

func main() {
	logrus.SetOutput(os.Stderr)
	log := logrus.WithField("component", "desktop")

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.WithError(err).Warn("single instance")
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		log.WithError(err).Warn("load settings, using defaults")
	}

	engine := ringtimer.New(settings.RingTimerConfig(), ringtimer.Options{
		Logger: logrus.WithField("component", "ringtimer"),
	})
	defer engine.Close()

	controller, err := host.NewController(engine, settings, log)
	if err != nil {
		log.WithError(err).Error("start controller")
		return
	}
	defer controller.Close()

	fyneApp := app.NewWithID("com.ringtimer.app")
	fyneApp.SetIcon(theme.HistoryIcon())

	report := func(err error) {
		if err != nil && !errors.Is(err, host.ErrRunning) {
			log.WithError(err).Warn("ring timer command")
		}
	}

	gaugeWindow := overlay.New(fyneApp, overlay.Config{Opacity: gaugeOpacity}, overlay.Callbacks{
		OnStart:       func() { report(controller.Start()) },
		OnTogglePause: func() { report(controller.TogglePause()) },
		OnStop:        func() { report(controller.Stop()) },
	})

	prefsWindow := preferences.New(fyneApp, controller.Settings(), preferences.Callbacks{
		OnStep: func(field host.Field, steps int) (host.Settings, error) {
			err := controller.Step(field, steps)
			return controller.Settings(), err
		},
		OnSave: func(updated host.Settings) error {
			if err := controller.ApplySettings(updated); err != nil {
				return err
			}
			return storage.SaveSettings(appName, updated)
		},
	})

	var trayManager *tray.Manager
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow:        gaugeWindow.Show,
			OnStart:       func() { report(controller.Start()) },
			OnTogglePause: func() { report(controller.TogglePause()) },
			OnStop:        func() { report(controller.Stop()) },
			OnPreferences: prefsWindow.Show,
			OnQuit:        fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
	} else {
		log.Info("system tray unsupported on this platform")
	}

	render := func(now time.Time) {
		status := controller.Status()
		buttons := controller.Buttons()
		frame := overlay.Frame{
			Phase:           engine.Phase(),
			Units:           engine.TimeData(),
			WarmUpRemaining: engine.WarmUpRemaining(),
			Now:             now,
			Status:          status,
			Buttons:         buttons,
		}
		fyne.Do(func() {
			gaugeWindow.Render(frame)
			prefsWindow.SetLocked(!buttons.Steppers)
			if trayManager != nil {
				trayManager.SetState(status, buttons)
				trayManager.SetStatus(gauge.Format(frame.Units))
			}
		})
	}

	controller.OnFinished(func() {
		log.Info("run finished")
		render(time.Now())
	})

	events := engine.Subscribe(eventBufferSize)
	go func() {
		for event := range events {
			if event.Type == ringtimer.EventError {
				log.WithError(event.Err).Error("ring timer halted")
			}
			render(event.At)
		}
	}()

	render(time.Now())
	gaugeWindow.Show()
	fyneApp.Run()
}
