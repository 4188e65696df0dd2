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
	c.normalizeScan()
	c.normalizeSources()
	c.normalizeSubtitles()
	c.normalizeTranscriptAPI()
	c.normalizeRewrite()
	c.normalizeFeishu()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ArchiveDir, err = expandPath(strings.TrimSpace(c.Paths.ArchiveDir)); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	c.Scan.ToolBinary = strings.TrimSpace(c.Scan.ToolBinary)
	if c.Scan.ToolBinary == "" {
		c.Scan.ToolBinary = defaultToolBinary
	}
	if c.Scan.Limit <= 0 {
		c.Scan.Limit = defaultScanLimit
	}
	if c.Scan.ToolTimeoutSeconds <= 0 {
		c.Scan.ToolTimeoutSeconds = defaultToolTimeoutSeconds
	}
}

func (c *Config) normalizeSources() {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Platform = strings.ToLower(strings.TrimSpace(src.Platform))
		src.URL = strings.TrimSpace(src.URL)
		if src.MinDurationMinutes < 0 {
			src.MinDurationMinutes = 0
		}
		tags := src.Tags[:0]
		for _, tag := range src.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		src.Tags = tags
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.PrimaryLanguage = strings.TrimSpace(c.Subtitles.PrimaryLanguage)
	if c.Subtitles.PrimaryLanguage == "" {
		c.Subtitles.PrimaryLanguage = defaultPrimaryLanguage
	}
	c.Subtitles.SecondaryLanguage = strings.TrimSpace(c.Subtitles.SecondaryLanguage)
	if c.Subtitles.SecondaryLanguage == "" {
		c.Subtitles.SecondaryLanguage = defaultSecondaryLanguage
	}
	if c.Subtitles.AttemptTimeoutSeconds <= 0 {
		c.Subtitles.AttemptTimeoutSeconds = defaultAttemptTimeoutSeconds
	}
	seen := make(map[string]struct{}, len(c.Subtitles.PaidFallbackPlatforms))
	platforms := make([]string, 0, len(c.Subtitles.PaidFallbackPlatforms))
	for _, p := range c.Subtitles.PaidFallbackPlatforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}
	c.Subtitles.PaidFallbackPlatforms = platforms
}

func (c *Config) normalizeTranscriptAPI() {
	c.TranscriptAPI.APIKey = strings.TrimSpace(c.TranscriptAPI.APIKey)
	if c.TranscriptAPI.APIKey == "" {
		if value, ok := os.LookupEnv("CURATOR_TRANSCRIPT_API_KEY"); ok {
			c.TranscriptAPI.APIKey = strings.TrimSpace(value)
		}
	}
	c.TranscriptAPI.BaseURL = strings.TrimRight(strings.TrimSpace(c.TranscriptAPI.BaseURL), "/")
	if c.TranscriptAPI.BaseURL == "" {
		c.TranscriptAPI.BaseURL = defaultTranscriptAPIBaseURL
	}
	if c.TranscriptAPI.TimeoutSeconds <= 0 {
		c.TranscriptAPI.TimeoutSeconds = defaultTranscriptAPITimeout
	}
	if c.TranscriptAPI.MaxRetries < 0 {
		c.TranscriptAPI.MaxRetries = 0
	}
	if c.TranscriptAPI.RetryDelaySeconds < 0 {
		c.TranscriptAPI.RetryDelaySeconds = 0
	}
}

func (c *Config) normalizeRewrite() {
	c.Rewrite.APIKey = strings.TrimSpace(c.Rewrite.APIKey)
	if c.Rewrite.APIKey == "" {
		if value, ok := os.LookupEnv("CURATOR_LLM_API_KEY"); ok {
			c.Rewrite.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Rewrite.APIKey = strings.TrimSpace(value)
		}
	}
	c.Rewrite.BaseURL = strings.TrimSpace(c.Rewrite.BaseURL)
	if c.Rewrite.BaseURL == "" {
		c.Rewrite.BaseURL = defaultRewriteBaseURL
	}
	c.Rewrite.Model = strings.TrimSpace(c.Rewrite.Model)
	if c.Rewrite.Model == "" {
		c.Rewrite.Model = defaultRewriteModel
	}
	c.Rewrite.Referer = strings.TrimSpace(c.Rewrite.Referer)
	if c.Rewrite.Referer == "" {
		c.Rewrite.Referer = defaultRewriteReferer
	}
	c.Rewrite.Title = strings.TrimSpace(c.Rewrite.Title)
	if c.Rewrite.Title == "" {
		c.Rewrite.Title = defaultRewriteTitle
	}
	if c.Rewrite.TimeoutSeconds <= 0 {
		c.Rewrite.TimeoutSeconds = defaultRewriteTimeoutSeconds
	}
	if c.Rewrite.MaxInputRunes <= 0 {
		c.Rewrite.MaxInputRunes = defaultRewriteMaxInputRunes
	}
}

func (c *Config) normalizeFeishu() {
	c.Feishu.AppID = strings.TrimSpace(c.Feishu.AppID)
	if c.Feishu.AppID == "" {
		if value, ok := os.LookupEnv("FEISHU_APP_ID"); ok {
			c.Feishu.AppID = strings.TrimSpace(value)
		}
	}
	c.Feishu.AppSecret = strings.TrimSpace(c.Feishu.AppSecret)
	if c.Feishu.AppSecret == "" {
		if value, ok := os.LookupEnv("FEISHU_APP_SECRET"); ok {
			c.Feishu.AppSecret = strings.TrimSpace(value)
		}
	}
	c.Feishu.BitableAppToken = strings.TrimSpace(c.Feishu.BitableAppToken)
	c.Feishu.TableID = strings.TrimSpace(c.Feishu.TableID)
	c.Feishu.BaseURL = strings.TrimRight(strings.TrimSpace(c.Feishu.BaseURL), "/")
	if c.Feishu.BaseURL == "" {
		c.Feishu.BaseURL = defaultFeishuBaseURL
	}
	if c.Feishu.RequestsPerSecond <= 0 {
		c.Feishu.RequestsPerSecond = defaultFeishuRequestsPerSecond
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
