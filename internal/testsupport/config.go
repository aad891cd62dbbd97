// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"quark/internal/config"
)

// NewConfig returns a validated configuration rooted in a temp directory,
// with a fake cookie and zeroed delays so tests run fast.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Drive.Cookie = "session=test"
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Pipeline.ItemDelayMS = 0
	cfg.Pipeline.RetryDelayMS = 0
	cfg.Pipeline.SettleWaitSeconds = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
