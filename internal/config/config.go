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

// Paths contains directory configuration.
type Paths struct {
	ArchiveDir string `toml:"archive_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Scan controls how the metadata tool lists recent items.
type Scan struct {
	ToolBinary         string `toml:"tool_binary"`
	Limit              int    `toml:"limit"`
	ToolTimeoutSeconds int    `toml:"tool_timeout_seconds"`
}

// Source describes one creator feed to scan.
type Source struct {
	Name               string   `toml:"name"`
	Platform           string   `toml:"platform"`
	URL                string   `toml:"url"`
	Enabled            bool     `toml:"enabled"`
	MinDurationMinutes int      `toml:"min_duration_minutes"`
	Tags               []string `toml:"tags"`
}

// Subtitles configures the free subtitle ladder and the paid fallback policy.
type Subtitles struct {
	PrimaryLanguage       string   `toml:"primary_language"`
	SecondaryLanguage     string   `toml:"secondary_language"`
	AttemptTimeoutSeconds int      `toml:"attempt_timeout_seconds"`
	PaidFallbackPlatforms []string `toml:"paid_fallback_platforms"`
	FetchCover            bool     `toml:"fetch_cover"`
}

// TranscriptAPI contains settings for the paid transcript service.
type TranscriptAPI struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxRetries        int    `toml:"max_retries"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// Rewrite contains the LLM connection used to rewrite transcripts.
type Rewrite struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxInputRunes  int    `toml:"max_input_runes"`
}

// Feishu contains Bitable publishing settings.
type Feishu struct {
	Enabled           bool    `toml:"enabled"`
	AppID             string  `toml:"app_id"`
	AppSecret         string  `toml:"app_secret"`
	BitableAppToken   string  `toml:"bitable_app_token"`
	TableID           string  `toml:"table_id"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for curator.
//
// Configuration sections by subsystem:
//   - Paths: archive, state (ledger + queue), and log directories
//   - Scan: metadata tool binary, per-source item limit, tool timeout
//   - Sources: creator feeds to scan
//   - Subtitles: ladder languages and paid fallback eligibility
//   - TranscriptAPI: paid transcript service credentials and retry policy
//   - Rewrite: LLM rewrite service
//   - Feishu: Bitable publishing
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Sources       []Source      `toml:"sources"`
	Subtitles     Subtitles     `toml:"subtitles"`
	TranscriptAPI TranscriptAPI `toml:"transcript_api"`
	Rewrite       Rewrite       `toml:"rewrite"`
	Feishu        Feishu        `toml:"feishu"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
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

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the archive, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArchiveDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the processed-items ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "processed.json")
}

// QueueDBPath returns the location of the selection queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LogFilePath returns the location of the persistent log file.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "curator.log")
}

// ToolTimeout returns the per-invocation timeout for scan listings.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Scan.ToolTimeoutSeconds) * time.Second
}

// AttemptTimeout returns the per-strategy timeout for subtitle extraction.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Subtitles.AttemptTimeoutSeconds) * time.Second
}

// EnabledSources returns the configured sources with enabled set, in file order.
func (c *Config) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

// PaidFallbackEligible reports whether the platform may use the paid transcript API.
func (c *Config) PaidFallbackEligible(platform string) bool {
	platform = strings.ToLower(strings.TrimSpace(platform))
	for _, p := range c.Subtitles.PaidFallbackPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
