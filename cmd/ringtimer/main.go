package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ringtimer/internal/core/ringtimer"
	"ringtimer/internal/host"
	"ringtimer/internal/storage"
	"ringtimer/internal/tui"
	"ringtimer/internal/ui/gauge"
)

const (
	appName        = "ringtimer"
	runEventBuffer = 256
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	configFile   string
	verbose      bool
	warmUpFor    time.Duration
	countdownFor time.Duration
	warningFor   time.Duration
	interval     time.Duration
	autoStart    bool
	exitOnFinish bool

	rootCmd = &cobra.Command{
		Use:   "ringtimer",
		Short: "A countdown timer with a warm-up lead-in and a warning phase.",
		Long:  `ringtimer counts down a configured duration after an optional warm-up, switching to a warning phase near the end. Without a subcommand it opens an interactive terminal gauge.`,
		RunE:  runInteractive,
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init.
func init() {
	// Route logs to stderr to keep stdout for timer output.
	logrus.SetOutput(os.Stderr)

	defaults := host.DefaultSettings()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Settings file (default: <user config dir>/ringtimer/settings.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().DurationVar(&warmUpFor, "warmup", defaults.WarmUpFor, "Warm-up lead-in before the countdown")
	rootCmd.PersistentFlags().DurationVar(&countdownFor, "countdown", defaults.CountdownFor, "Countdown length")
	rootCmd.PersistentFlags().DurationVar(&warningFor, "warning", defaults.WarningFor, "Warning window at the end of the countdown")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", defaults.UpdateInterval, "Update interval of the timer loop")

	rootCmd.Flags().BoolVar(&autoStart, "start", false, "Start the countdown as soon as the gauge opens")
	rootCmd.Flags().BoolVar(&exitOnFinish, "once", false, "Quit the gauge after the first finished run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func main() {
	Execute()
}

//nolint:gochecknoglobals // Cobra command is defined at package scope.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one countdown headless, printing each phase change",
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(logrus.WarnLevel)

		settings, err := effectiveSettings(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runHeadless(ctx, cmd.OutOrStdout(), settings)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or persist ring timer settings",
}

//nolint:gochecknoglobals // Cobra command is defined at package scope.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := effectiveSettings(cmd)
		if err != nil {
			return err
		}
		raw, err := storage.EncodeSettings(settings)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope.
var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the effective settings to the settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := effectiveSettings(cmd)
		if err != nil {
			return err
		}
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if err := storage.SaveSettingsTo(path, settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved settings to %s\n", path)
		return nil
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func runInteractive(cmd *cobra.Command, args []string) error {
	configureLogging(logrus.InfoLevel)

	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	engine, controller, err := newTimer(settings)
	if err != nil {
		return err
	}
	defer engine.Close()
	defer controller.Close()

	if err := tui.Run(cmd.Context(), engine, controller, tui.Options{
		AutoStart:    autoStart,
		ExitOnFinish: exitOnFinish,
	}); err != nil {
		return fmt.Errorf("TUI mode failed: %w", err)
	}
	return nil
}

// runHeadless starts one run and prints phase changes until it finishes.
// Cancelling ctx stops the run early; the finished notification still ends it.
func runHeadless(ctx context.Context, out io.Writer, settings host.Settings) error {
	engine, controller, err := newTimer(settings)
	if err != nil {
		return err
	}
	defer engine.Close()
	defer controller.Close()

	done := make(chan struct{})
	controller.OnFinished(func() { close(done) })
	events := engine.Subscribe(runEventBuffer)

	if err := controller.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "start\t%s\t%s\n", engine.RunState().RunID, gauge.Format(engine.TimeData()))

	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			if err := controller.Stop(); err != nil {
				return err
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := printEvent(out, event, engine); err != nil {
				return err
			}
		case <-done:
			drainEvents(out, events, engine)
			fmt.Fprintln(out, "finished")
			return nil
		}
	}
}

func printEvent(out io.Writer, event ringtimer.Event, engine *ringtimer.Engine) error {
	switch event.Type {
	case ringtimer.EventError:
		return event.Err
	case ringtimer.EventPhaseChanged:
		if event.Phase == ringtimer.PhaseReady {
			return nil
		}
		fmt.Fprintf(out, "%s\t%s\n", event.Phase, gauge.Format(engine.TimeData()))
	}
	return nil
}

func drainEvents(out io.Writer, events <-chan ringtimer.Event, engine *ringtimer.Engine) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := printEvent(out, event, engine); err != nil {
				logrus.WithError(err).Warn("ring timer reported an error")
			}
		default:
			return
		}
	}
}

func newTimer(settings host.Settings) (*ringtimer.Engine, *host.Controller, error) {
	log := logrus.NewEntry(logrus.StandardLogger())
	engine := ringtimer.New(settings.RingTimerConfig(), ringtimer.Options{
		Logger: log.WithField("component", "ringtimer"),
	})
	controller, err := host.NewController(engine, settings, log)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, controller, nil
}

// effectiveSettings loads the settings file and applies explicitly set flags on top.
func effectiveSettings(cmd *cobra.Command) (host.Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return host.Settings{}, err
	}

	settings, err := storage.LoadSettingsFrom(path)
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("warmup") {
		settings.WarmUpFor = warmUpFor
	}
	if flags.Changed("countdown") {
		settings.CountdownFor = countdownFor
	}
	if flags.Changed("warning") {
		settings.WarningFor = warningFor
	}
	if flags.Changed("interval") {
		settings.UpdateInterval = interval
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	logrus.WithFields(logrus.Fields{
		"path":      path,
		"warm_up":   settings.WarmUpFor,
		"countdown": settings.CountdownFor,
		"warning":   settings.WarningFor,
	}).Debug("effective settings")
	return settings, nil
}

func settingsPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	path, err := storage.ResolveConfigPath(appName)
	if err != nil {
		return "", errors.Join(err, errors.New("pass --config to choose a settings file"))
	}
	return path, nil
}

// configureLogging sets the log level: debug with --verbose, otherwise quiet.
func configureLogging(quiet logrus.Level) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(quiet)
}
