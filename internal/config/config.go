package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	FlavorEvents      = "events"
	FlavorCheckpoints = "checkpoints"
)

var (
	backends  = []string{BackendJSON, BackendSQLite}
	flavors   = []string{FlavorEvents, FlavorCheckpoints}
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// Config holds runtime settings
type Config struct {
	DataPath string `yaml:"data_path"`
	Backend  string `yaml:"backend"`
	Flavor   string `yaml:"flavor"`
	LogLevel string `yaml:"log_level"`
	Addr     string `yaml:"addr"`
}

// Dir is the directory holding the default config and data files
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".journal"
	}
	return filepath.Join(home, ".journal")
}

// DefaultPath is where Load looks when no config file is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		DataPath: filepath.Join(Dir(), "journal.json"),
		Backend:  BackendJSON,
		Flavor:   FlavorEvents,
		LogLevel: "warn",
		Addr:     ":8080",
	}
}

// Load overlays the YAML file at path on the defaults. Fields absent from
// the file keep their default value. Only DefaultPath may be missing; any
// other path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultPath() {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.DataPath = expandHome(cfg.DataPath)
	return cfg, nil
}

// Validate rejects unknown backends, flavors and log levels
func (c Config) Validate() error {
	if c.DataPath == "" {
		return errors.New("data_path is required")
	}
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("invalid backend %q: must be one of %v", c.Backend, backends)
	}
	if !slices.Contains(flavors, c.Flavor) {
		return fmt.Errorf("invalid flavor %q: must be one of %v", c.Flavor, flavors)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Level returns the slog level for LogLevel, defaulting to warn
func (c Config) Level() slog.Level {
	if l, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelWarn
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
