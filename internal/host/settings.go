package host

import (
	"fmt"
	"time"

	"ringtimer/internal/core/model"
	"ringtimer/internal/validate"
)

const (
	// StepSize is the increment of the settings steppers.
	StepSize = time.Second
	// MinCountdown is the shortest countdown the steppers allow.
	MinCountdown = 2 * time.Second
)

// Field identifies a stepper-adjustable setting.
type Field string

const (
	FieldWarmUp    Field = "warm_up"
	FieldCountdown Field = "countdown"
	FieldWarning   Field = "warning"
)

// Settings defines the durations the host forwards to the engine.
type Settings struct {
	WarmUpFor      time.Duration `validate:"gte=0"`
	CountdownFor   time.Duration `validate:"gte=0"`
	WarningFor     time.Duration `validate:"gte=0"`
	UpdateInterval time.Duration `validate:"gt=0"`
}

// DefaultSettings returns the host defaults: 5s warm-up, 20s countdown, 1s warning.
func DefaultSettings() Settings {
	return Settings{
		WarmUpFor:      5 * time.Second,
		CountdownFor:   20 * time.Second,
		WarningFor:     time.Second,
		UpdateInterval: model.DefaultUpdateInterval,
	}
}

// RingTimerConfig converts settings to the engine configuration.
func (settings Settings) RingTimerConfig() model.RingTimerConfig {
	return model.RingTimerConfig{
		CountdownFor:   settings.CountdownFor,
		WarmUpFor:      settings.WarmUpFor,
		WarningFor:     settings.WarningFor,
		UpdateInterval: settings.UpdateInterval,
	}
}

// Validate rejects negative durations and a non-positive update interval.
func (settings Settings) Validate() error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %s", model.ErrInvalidConfig, validate.Describe(err))
	}
	return nil
}

// Step moves one field by steps*StepSize, clamped to its floor.
func (settings Settings) Step(field Field, steps int) Settings {
	delta := time.Duration(steps) * StepSize
	switch field {
	case FieldWarmUp:
		settings.WarmUpFor = max(settings.WarmUpFor+delta, 0)
	case FieldCountdown:
		settings.CountdownFor = max(settings.CountdownFor+delta, MinCountdown)
	case FieldWarning:
		settings.WarningFor = max(settings.WarningFor+delta, 0)
	}
	return settings
}

// Value returns the duration held by field.
func (settings Settings) Value(field Field) time.Duration {
	switch field {
	case FieldWarmUp:
		return settings.WarmUpFor
	case FieldCountdown:
		return settings.CountdownFor
	case FieldWarning:
		return settings.WarningFor
	}
	return 0
}
