// Package testsupport builds isolated configs, queue stores and fixture files
// for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// NewConfig returns the default config rooted in a per-test temp directory
// with every remote integration switched off and no sources. Mutators run in
// order after the defaults are applied.
func NewConfig(t testing.TB, mutators ...func(*config.Config)) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Sources = nil
	cfg.TranscriptAPI.APIKey = ""
	cfg.TranscriptAPI.RetryDelaySeconds = 0
	cfg.Rewrite.APIKey = ""
	cfg.Feishu.Enabled = false
	cfg.Notifications.NtfyTopic = ""

	for _, mutate := range mutators {
		mutate(&cfg)
	}
	return &cfg
}

// WithSource appends source to the generated config.
func WithSource(source config.Source) func(*config.Config) {
	return func(cfg *config.Config) {
		cfg.Sources = append(cfg.Sources, source)
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
