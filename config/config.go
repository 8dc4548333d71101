// Package config loads findex configuration from an optional YAML file with
// FINDEX_* environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexandro/findex/ignore"
	"github.com/lexandro/findex/index"
	"github.com/lexandro/findex/store"
)

const (
	// DefaultRefreshInterval is the period between scheduled rebuilds.
	DefaultRefreshInterval = time.Hour

	// DefaultCacheSize bounds the query result cache.
	DefaultCacheSize = 256

	// DefaultFileName is the config file name inside the per-user config directory.
	DefaultFileName = "config.yaml"

	envPrefix = "FINDEX_"
)

// Config is the complete findex configuration.
type Config struct {
	// Root is the directory tree to index. Default: the user's home directory.
	Root string `yaml:"root"`
	// SkipName is a directory name whose subtree is never indexed. Default: "Library".
	SkipName string `yaml:"skip_name"`
	// Exclude holds extra doublestar patterns to leave out. Default: none.
	Exclude []string `yaml:"exclude"`
	// IgnoreFile is a gitignore-syntax file read from Root if present. Default: ".findexignore".
	IgnoreFile string `yaml:"ignore_file"`
	// MinimumScore gates search results. Default: 20.
	MinimumScore int `yaml:"minimum_score"`
	// RefreshInterval is the period between scheduled rebuilds. Default: 1h.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// StartupDelay postpones the first scheduled rebuild. Default: 0.
	StartupDelay time.Duration `yaml:"startup_delay"`
	// IndexPath is the persisted index location. Default: <user config dir>/findex/index.json.
	IndexPath string `yaml:"index_path"`
	// CacheSize bounds the query result cache; negative disables it. Default: 256.
	CacheSize int `yaml:"cache_size"`
	// WatchIndex reloads the resident index when the file is replaced externally. Default: true.
	WatchIndex bool `yaml:"watch_index"`

	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a Config with the documented defaults.
func Default() Config {
	root, err := os.UserHomeDir()
	if err != nil {
		root = string(filepath.Separator)
	}
	indexPath, err := store.DefaultPath()
	if err != nil {
		indexPath = store.DefaultFileName
	}
	return Config{
		Root:            root,
		SkipName:        ignore.DefaultSkipName,
		IgnoreFile:      ignore.DefaultIgnoreFile,
		MinimumScore:    index.MinimumScore,
		RefreshInterval: DefaultRefreshInterval,
		IndexPath:       indexPath,
		CacheSize:       DefaultCacheSize,
		WatchIndex:      true,
		LogLevel:        "info",
	}
}

// DefaultPath returns the config file location in the per-user configuration directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(configDir, "findex", DefaultFileName), nil
}

// Load builds a Config from defaults, the YAML file at path and the
// environment, in increasing priority. An empty path means DefaultPath, which
// may be absent; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if defaultPath, err := DefaultPath(); err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	cfg.Root = expandHome(cfg.Root)
	cfg.IndexPath = expandHome(cfg.IndexPath)
	return cfg, nil
}

// Validate rejects configurations the indexer cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if c.IndexPath == "" {
		errs = append(errs, errors.New("index_path must not be empty"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval))
	}
	if c.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("startup_delay must not be negative, got %s", c.StartupDelay))
	}
	if c.MinimumScore < 1 || c.MinimumScore > index.MatchScore {
		errs = append(errs, fmt.Errorf("minimum_score must be between 1 and %d, got %d", index.MatchScore, c.MinimumScore))
	}
	if strings.ContainsRune(c.SkipName, filepath.Separator) {
		errs = append(errs, fmt.Errorf("skip_name must be a single path segment, got %q", c.SkipName))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides reads FINDEX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(envPrefix + "ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv(envPrefix + "SKIP_NAME"); v != "" {
		cfg.SkipName = v
	}
	if v := os.Getenv(envPrefix + "EXCLUDE"); v != "" {
		cfg.Exclude = strings.Split(v, ",")
	}
	if v := os.Getenv(envPrefix + "IGNORE_FILE"); v != "" {
		cfg.IgnoreFile = v
	}
	if v := os.Getenv(envPrefix + "INDEX_PATH"); v != "" {
		cfg.IndexPath = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(envPrefix + "METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	var errs []error
	if v := os.Getenv(envPrefix + "MINIMUM_SCORE"); v != "" {
		score, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMINIMUM_SCORE: %w", envPrefix, err))
		} else {
			cfg.MinimumScore = score
		}
	}
	if v := os.Getenv(envPrefix + "CACHE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_SIZE: %w", envPrefix, err))
		} else {
			cfg.CacheSize = size
		}
	}
	if v := os.Getenv(envPrefix + "REFRESH_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREFRESH_INTERVAL: %w", envPrefix, err))
		} else {
			cfg.RefreshInterval = interval
		}
	}
	if v := os.Getenv(envPrefix + "STARTUP_DELAY"); v != "" {
		delay, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTARTUP_DELAY: %w", envPrefix, err))
		} else {
			cfg.StartupDelay = delay
		}
	}
	if v := os.Getenv(envPrefix + "WATCH_INDEX"); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWATCH_INDEX: %w", envPrefix, err))
		} else {
			cfg.WatchIndex = watch
		}
	}
	return errors.Join(errs...)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
