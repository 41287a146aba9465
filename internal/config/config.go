// Package config loads tada settings from defaults, TOML files, environment
// variables and command-line flags, in that priority order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBackend  = "file"
	DefaultDataDir  = "~/.tada"
	DefaultTheme    = "classic"
	DefaultLogLevel = "info"

	projectConfigFile = ".tada.toml"
	logFileName       = "tada.log"
)

// Config holds the resolved settings.
type Config struct {
	Backend  string `toml:"backend"`   // "file" | "sqlite"
	DataDir  string `toml:"data_dir"`  // where the slot backend keeps its data
	Theme    string `toml:"theme"`     // "classic" | "neon" | "mono"
	LogLevel string `toml:"log_level"` // debug | info | warn | error
	LogFile  string `toml:"log_file"`  // defaults to <data_dir>/tada.log
	Group    bool   `toml:"group"`     // ls grouped by pending/done

	// File is the config file that was read, if any.
	File string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.DataDir = DefaultDataDir
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
}

// flagValues mirrors the root flags before they are applied.
type flagValues struct {
	config, backend, dataDir, theme, logLevel string
	group                                     bool
}

// Load resolves configuration and returns it with the non-flag arguments:
// 1. Defaults
// 2. Config file (-config, $TADA_CONFIG, user config dir, then ./.tada.toml)
// 3. Environment variables (TADA_*)
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	var fv flagValues
	fs.StringVar(&fv.config, "config", "", "path to a TOML config file")
	fs.StringVar(&fv.backend, "backend", "", "storage backend: file or sqlite")
	fs.StringVar(&fv.dataDir, "data-dir", "", "directory holding the task data")
	fs.StringVar(&fv.theme, "theme", "", "color theme: classic, neon or mono")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&fv.group, "group", false, "group output by pending/done")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	path, explicit := fv.config, fv.config != ""
	if !explicit {
		if v := os.Getenv("TADA_CONFIG"); v != "" {
			path, explicit = v, true
		} else {
			path = findConfigFile()
		}
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else {
			cfg.File = path
		}
	}

	loadFromEnv(cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = fv.backend
		case "data-dir":
			cfg.DataDir = fv.dataDir
		case "theme":
			cfg.Theme = fv.theme
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "group":
			cfg.Group = fv.group
		}
	})

	if err := finalize(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	var candidates []string
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "tada", "config.toml"))
	}
	candidates = append(candidates, projectConfigFile)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func finalize(cfg *Config) error {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid backend %q (want file or sqlite)", cfg.Backend)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, logFileName)
	}
	return nil
}
