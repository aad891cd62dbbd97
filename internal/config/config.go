package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Drive contains connection settings for the Quark Drive API.
type Drive struct {
	Cookie         string `toml:"cookie"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Pipeline contains run behavior and timing settings.
type Pipeline struct {
	TargetDirectory   string `toml:"target_directory"`
	DeleteSourceFiles bool   `toml:"delete_source_files"`
	ItemDelayMS       int    `toml:"item_delay_ms"`
	RetryDelayMS      int    `toml:"retry_delay_ms"`
	SettleWaitSeconds int    `toml:"settle_wait_seconds"`
}

// Paths contains local directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// History contains configuration for the run journal.
type History struct {
	Enabled bool `toml:"enabled"`
	Keep    int  `toml:"keep"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quark.
type Config struct {
	Drive    Drive    `toml:"drive"`
	Pipeline Pipeline `toml:"pipeline"`
	Paths    Paths    `toml:"paths"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/quark/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// CreateSample writes the embedded sample configuration to the given path,
// creating parent directories as needed.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the local directories quark writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ItemDelay returns the courtesy pause between remote calls on a first pass.
func (c *Config) ItemDelay() time.Duration {
	return time.Duration(c.Pipeline.ItemDelayMS) * time.Millisecond
}

// RetryDelay returns the longer pause used during a stage's retry pass.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Pipeline.RetryDelayMS) * time.Millisecond
}

// SettleWait returns the pause between extraction and organization that lets
// the remote service materialize extracted folders.
func (c *Config) SettleWait() time.Duration {
	return time.Duration(c.Pipeline.SettleWaitSeconds) * time.Second
}

// RequestTimeout returns the per-call HTTP timeout for the drive client.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Drive.RequestTimeout) * time.Second
}

// HistoryDBPath returns the SQLite path for the run journal.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockFilePath returns the path of the single-run lock file.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "quark.lock")
}

// ExpandPath expands a leading ~ or environment variables in a path and makes
// it absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			trimmed = home
		} else {
			trimmed = filepath.Join(home, trimmed[2:])
		}
	}
	trimmed = os.ExpandEnv(trimmed)
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
