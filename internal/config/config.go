// Package config resolves where taskdeck keeps its data and how it looks.
// Resolution order: env override, then ~/.taskdeck/config.json, then
// defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configFileName = "config.json"

// Config is the small set of host-level knobs that live outside the
// application state (the state itself persists through the store).
type Config struct {
	DataDir string `json:"dataDir"` // where the key-value records live
	Theme   string `json:"theme"`   // classic | neon | mono
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".taskdeck"), nil
}

// Load resolves the effective config.
func Load() (Config, error) {
	cfg, err := fromFile()
	if err != nil {
		return Config{}, err
	}

	// env overrides
	if v := strings.TrimSpace(os.Getenv("TASKDECK_DATA")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKDECK_THEME")); v != "" {
		cfg.Theme = v
	}

	// defaults
	if cfg.DataDir == "" {
		dir, err := configDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = filepath.Join(dir, "data")
	}
	if cfg.Theme == "" {
		cfg.Theme = "classic"
	}
	return cfg, nil
}

func fromFile() (Config, error) {
	dir, err := configDir()
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		// A broken config file should not lock the user out.
		return Config{}, nil
	}
	return cfg, nil
}

// Save writes the config file with owner-only permissions.
func Save(cfg Config) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFileName), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
