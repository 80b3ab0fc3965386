// Package config loads the editor configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Command-line flags override it.
type Config struct {
	Window   Window   `yaml:"window"`
	Editor   Editor   `yaml:"editor"`
	Storage  Storage  `yaml:"storage"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
	Headless Headless `yaml:"headless"`
}

type Window struct {
	Width  int `yaml:"width" validate:"gte=160,lte=8192"`
	Height int `yaml:"height" validate:"gte=120,lte=8192"`
	TPS    int `yaml:"tps" validate:"gte=1,lte=240"`
	Scale  int `yaml:"scale" validate:"gte=1,lte=4"`
}

type Editor struct {
	PickRadius  float64 `yaml:"pick_radius" validate:"gt=0,lte=200"`
	Sensitivity float64 `yaml:"rotation_sensitivity" validate:"gt=0,lte=1"`
	Zoom        float64 `yaml:"zoom" validate:"gt=0"`
	Mailbox     int     `yaml:"mailbox" validate:"gte=1,lte=4096"`
}

type Storage struct {
	SaveDir          string        `yaml:"save_dir" validate:"required"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" validate:"gte=0"`
	JournalPath      string        `yaml:"journal_path"`
	JournalKeep      int           `yaml:"journal_keep" validate:"gte=0"`
	Watch            bool          `yaml:"watch"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

type Metrics struct {
	// Addr serves /metrics when non-empty, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

type Headless struct {
	Hz    int    `yaml:"hz" validate:"gte=1,lte=1000"`
	Ticks uint64 `yaml:"ticks"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, "icednano")
	}
	return Config{
		Window:  Window{Width: 960, Height: 540, TPS: 60, Scale: 1},
		Editor:  Editor{PickRadius: 12, Sensitivity: 0.01, Zoom: 20, Mailbox: 256},
		Storage: Storage{SaveDir: dir, AutosaveInterval: 30 * time.Second, JournalKeep: 20},
		Log:     Log{Level: "info"},
		Headless: Headless{
			Hz: 60,
		},
	}
}

var validate = validator.New()

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, cfg.Validate()
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

// JournalDir is where autosaves go when no journal path is configured.
func (c Config) JournalDir() string {
	if c.Storage.JournalPath != "" {
		return c.Storage.JournalPath
	}
	return filepath.Join(c.Storage.SaveDir, ".autosave")
}
