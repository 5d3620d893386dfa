// Package config resolves moodtrack settings from defaults, a YAML file,
// a .env file and the environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/moodtrack/internal/store"
)

const (
	EnvDB       = "MOODTRACK_DB"
	EnvLogLevel = "MOODTRACK_LOG_LEVEL"
	EnvLogFile  = "MOODTRACK_LOG_FILE"
	EnvLocale   = "MOODTRACK_LOCALE"
	EnvConfig   = "MOODTRACK_CONFIG"
)

type Config struct {
	DBPath   string `yaml:"db" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error fatal"`
	// LogFile receives logs while the TUI owns the terminal. Empty disables
	// file logging in the TUI.
	LogFile string `yaml:"log_file"`
	Locale  string `yaml:"locale" validate:"oneof=en ru"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() (*Config, error) {
	db, err := store.DefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	return &Config{
		DBPath:   db,
		LogLevel: "info",
		LogFile:  filepath.Join(filepath.Dir(db), "moodtrack.log"),
		Locale:   "en",
	}, nil
}

// DefaultPath returns ~/.config/moodtrack/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "moodtrack", "config.yaml"), nil
}

// Load builds the configuration. path names the YAML file; when empty,
// MOODTRACK_CONFIG or DefaultPath is used and a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv(EnvDB, c.DBPath)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.LogFile = getEnv(EnvLogFile, c.LogFile)
	c.Locale = getEnv(EnvLocale, c.Locale)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the parsed log level, info when unset or unknown.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
