package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const DefaultFileName = "keeper.toml"

// Environment overrides, applied after the file.
const (
	EnvDB        = "KEEPER_DB"
	EnvLogLevel  = "KEEPER_LOG_LEVEL"
	EnvLogFormat = "KEEPER_LOG_FORMAT"
	EnvLogFile   = "KEEPER_LOG_FILE"
)

// Config holds the knobs that are needed before the database is open.
// Everything else lives in the settings table.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`

	// Source is the file the config came from, or "<defaults>".
	Source string `toml:"-"`
}

type StorageConfig struct {
	// DBPath is the SQLite file. Empty means the per-user default.
	DBPath string `toml:"db_path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives UI logs. Empty means keeper.log next to the config dir.
	File string `toml:"file"`
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads path (or ./keeper.toml when path is empty), then applies a
// .env file and KEEPER_* variables. A missing default file is not an error;
// a missing explicit file is. Callers apply their own overrides and then
// call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", candidate, err)
		}
		cfg.Source = candidate
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return cfg, fmt.Errorf("config file %q not found", candidate)
		}
	default:
		return cfg, fmt.Errorf("read config %q: %w", candidate, err)
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvDB); ok && strings.TrimSpace(v) != "" {
		c.Storage.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && strings.TrimSpace(v) != "" {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok && strings.TrimSpace(v) != "" {
		c.Logging.File = v
	}
}

func (c Config) Validate() error {
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// LogFile returns the UI log destination.
func (c Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gesturekeeper", "keeper.log"), nil
}

// NormalizeLogLevel lowercases level and checks it is one slog understands.
// Empty means info.
func NormalizeLogLevel(level string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "":
		return "info", nil
	case "debug", "info", "warn", "error":
		return l, nil
	case "warning":
		return "warn", nil
	}
	return "", fmt.Errorf("unsupported log level %q", level)
}

// NormalizeFormat maps format aliases onto json or text.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "", "json":
		return "json", nil
	case "text", "console":
		return "text", nil
	}
	return "", fmt.Errorf("unsupported log format %q", format)
}
