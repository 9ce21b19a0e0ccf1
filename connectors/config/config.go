package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dc "task-dashboard/domain/config"
)

const (
	DefaultPath            = "./config.yml"
	DefaultDataPath        = "data/project_data.csv"
	DefaultAddr            = ":8080"
	DefaultExportCacheSize = 32
	DefaultLogLevel        = "info"
	DefaultRemoteTTL       = 30 * time.Second
)

// DefaultDateLayouts are tried in order when parsing the date columns.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// Config is re-exported so callers only import this package.
type Config = dc.Config

// Default returns a configuration with every field set to its default.
func Default() *Config {
	c := &Config{}
	c.Data.Path = DefaultDataPath
	c.Data.DateLayouts = append([]string{}, DefaultDateLayouts...)
	c.Data.RemoteTTL = DefaultRemoteTTL
	c.Web.Addr = DefaultAddr
	c.Web.ExportCacheSize = DefaultExportCacheSize
	c.Log.Level = DefaultLogLevel
	return c
}

// Load parses the YAML configuration file at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config.file.missing", "path", path)
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		slog.Info(fmt.Sprintf("Loaded config: %s", path))
	}
	applyEnv(c)
	fillDefaults(c)
	return c, nil
}

// PathFromEnv resolves the config file location from CONFIG_PATH.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads .env into the process environment when the file exists.
// Variables already set take precedence.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(c *Config) {
	if v := os.Getenv("DATA_FILE"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Web.Addr = v
	}
	if v := os.Getenv("REMOTE_TOKEN"); v != "" {
		c.Remote.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func fillDefaults(c *Config) {
	if strings.TrimSpace(c.Data.Path) == "" {
		c.Data.Path = DefaultDataPath
	}
	if len(c.Data.DateLayouts) == 0 {
		c.Data.DateLayouts = append([]string{}, DefaultDateLayouts...)
	}
	if c.Web.Addr == "" {
		c.Web.Addr = DefaultAddr
	}
	if c.Web.ExportCacheSize <= 0 {
		c.Web.ExportCacheSize = DefaultExportCacheSize
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// SlogLevel maps log.level to a slog level, defaulting to info.
func SlogLevel(c *Config) slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
