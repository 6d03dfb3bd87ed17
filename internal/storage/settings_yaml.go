package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ringtimer/internal/host"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WarmUpMillis         *int64 `yaml:"warm_up_ms"`
	CountdownMillis      *int64 `yaml:"countdown_ms"`
	WarningMillis        *int64 `yaml:"warning_ms"`
	UpdateIntervalMillis *int64 `yaml:"update_interval_ms"`
}

// LoadSettings reads the ring timer settings from the user config directory.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (host.Settings, error) {
	configPath, err := ResolveConfigPath(appName)
	if err != nil {
		return host.DefaultSettings(), err
	}
	return LoadSettingsFrom(configPath)
}

// LoadSettingsFrom reads settings from an explicit YAML file.
func LoadSettingsFrom(configPath string) (host.Settings, error) {
	settings := host.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes the ring timer settings to the user config directory.
func SaveSettings(appName string, settings host.Settings) error {
	configPath, err := ResolveConfigPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsTo(configPath, settings)
}

// SaveSettingsTo writes settings to an explicit YAML file.
func SaveSettingsTo(configPath string, settings host.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := EncodeSettings(settings)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// EncodeSettings renders settings in the on-disk YAML layout.
func EncodeSettings(settings host.Settings) ([]byte, error) {
	fileData := yamlSettings{
		WarmUpMillis:         millis(settings.WarmUpFor),
		CountdownMillis:      millis(settings.CountdownFor),
		WarningMillis:        millis(settings.WarningFor),
		UpdateIntervalMillis: millis(settings.UpdateInterval),
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, fmt.Errorf("marshal settings yaml: %w", err)
	}
	return serialized, nil
}

// ResolveConfigPath returns <user config dir>/<appName>/settings.yaml.
func ResolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *host.Settings, fileData yamlSettings) {
	if fileData.WarmUpMillis != nil && *fileData.WarmUpMillis >= 0 {
		settings.WarmUpFor = time.Duration(*fileData.WarmUpMillis) * time.Millisecond
	}
	if fileData.CountdownMillis != nil && *fileData.CountdownMillis >= 0 {
		settings.CountdownFor = time.Duration(*fileData.CountdownMillis) * time.Millisecond
	}
	if fileData.WarningMillis != nil && *fileData.WarningMillis >= 0 {
		settings.WarningFor = time.Duration(*fileData.WarningMillis) * time.Millisecond
	}
	if fileData.UpdateIntervalMillis != nil && *fileData.UpdateIntervalMillis > 0 {
		settings.UpdateInterval = time.Duration(*fileData.UpdateIntervalMillis) * time.Millisecond
	}
}

func millis(duration time.Duration) *int64 {
	value := duration.Milliseconds()
	return &value
}
