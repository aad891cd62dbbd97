package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDrive()
	c.normalizePipeline()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDrive() {
	c.Drive.Cookie = strings.TrimSpace(c.Drive.Cookie)
	if c.Drive.Cookie == "" {
		c.Drive.Cookie = strings.TrimSpace(os.Getenv("QUARK_COOKIE"))
	}
	c.Drive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Drive.BaseURL), "/")
	if c.Drive.BaseURL == "" {
		c.Drive.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Drive.UserAgent) == "" {
		c.Drive.UserAgent = defaultUserAgent
	}
	if c.Drive.RequestTimeout <= 0 {
		c.Drive.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.TargetDirectory = strings.TrimSpace(c.Pipeline.TargetDirectory)
	if c.Pipeline.TargetDirectory == "" {
		c.Pipeline.TargetDirectory = defaultTargetDirectory
	}
	if !strings.HasPrefix(c.Pipeline.TargetDirectory, "/") {
		c.Pipeline.TargetDirectory = "/" + c.Pipeline.TargetDirectory
	}
	if c.Pipeline.ItemDelayMS < 0 {
		c.Pipeline.ItemDelayMS = defaultItemDelayMS
	}
	if c.Pipeline.RetryDelayMS < 0 {
		c.Pipeline.RetryDelayMS = defaultRetryDelayMS
	}
	if c.Pipeline.SettleWaitSeconds < 0 {
		c.Pipeline.SettleWaitSeconds = defaultSettleWaitSeconds
	}
}

func (c *Config) normalizeHistory() {
	if c.History.Keep <= 0 {
		c.History.Keep = defaultHistoryKeep
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
