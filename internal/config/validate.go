package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDrive(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDrive() error {
	if c.Drive.Cookie == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/quark/config.toml"
		}
		return fmt.Errorf("drive.cookie is required. Set QUARK_COOKIE env var or edit %s (create with 'quark config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Drive.BaseURL)
	if err != nil {
		return fmt.Errorf("drive.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("drive.base_url must be an http(s) URL, got %q", c.Drive.BaseURL)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.TargetDirectory == "" {
		return errors.New("pipeline.target_directory must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
