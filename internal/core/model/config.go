package model

import (
	"errors"
	"fmt"
	"time"

	"ringtimer/internal/validate"
)

// ErrInvalidConfig indicates a configuration the engine refuses to run with.
var ErrInvalidConfig = errors.New("invalid ring timer config")

// DefaultUpdateInterval is the tick period used when none is configured.
const DefaultUpdateInterval = 20 * time.Millisecond

// RingTimerConfig contains the durations that drive a single timer run.
type RingTimerConfig struct {
	CountdownFor   time.Duration `validate:"gte=0"`
	WarmUpFor      time.Duration `validate:"gte=0"`
	WarningFor     time.Duration `validate:"gte=0"`
	UpdateInterval time.Duration `validate:"gt=0"`
}

// Overrides holds pending values set by the host between runs.
// Nil fields keep the base configuration value.
type Overrides struct {
	CountdownFor *time.Duration
	WarmUpFor    *time.Duration
	WarningFor   *time.Duration
}

// DefaultRingTimerConfig returns the stock 3s warm-up, 15s countdown, 1s warning setup.
func DefaultRingTimerConfig() RingTimerConfig {
	return RingTimerConfig{
		CountdownFor:   15 * time.Second,
		WarmUpFor:      3 * time.Second,
		WarningFor:     time.Second,
		UpdateInterval: DefaultUpdateInterval,
	}
}

// Merge returns a copy of config with the non-nil overrides applied.
func (config RingTimerConfig) Merge(overrides Overrides) RingTimerConfig {
	if overrides.CountdownFor != nil {
		config.CountdownFor = *overrides.CountdownFor
	}
	if overrides.WarmUpFor != nil {
		config.WarmUpFor = *overrides.WarmUpFor
	}
	if overrides.WarningFor != nil {
		config.WarningFor = *overrides.WarningFor
	}
	return config
}

// Validate rejects negative durations and a non-positive update interval.
func (config RingTimerConfig) Validate() error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, validate.Describe(err))
	}
	return nil
}

// Total is the full run length from start to deadline.
func (config RingTimerConfig) Total() time.Duration {
	return config.WarmUpFor + config.CountdownFor
}
