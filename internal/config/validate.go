package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownPlatforms = map[string]struct{}{
	"youtube":    {},
	"bilibili":   {},
	"xiaoyuzhou": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateFeishu(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ArchiveDir == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	names := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if _, dup := names[src.Name]; dup {
			return fmt.Errorf("sources[%d].name %q is duplicated", i, src.Name)
		}
		names[src.Name] = struct{}{}
		if _, ok := knownPlatforms[src.Platform]; !ok {
			return fmt.Errorf("sources[%d].platform %q must be one of youtube, bilibili, xiaoyuzhou", i, src.Platform)
		}
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	for _, p := range c.Subtitles.PaidFallbackPlatforms {
		if _, ok := knownPlatforms[p]; !ok {
			return fmt.Errorf("subtitles.paid_fallback_platforms contains unknown platform %q", p)
		}
	}
	return nil
}

func (c *Config) validateFeishu() error {
	if !c.Feishu.Enabled {
		return nil
	}
	var missing []string
	if c.Feishu.AppID == "" {
		missing = append(missing, "app_id")
	}
	if c.Feishu.AppSecret == "" {
		missing = append(missing, "app_secret")
	}
	if c.Feishu.BitableAppToken == "" {
		missing = append(missing, "bitable_app_token")
	}
	if c.Feishu.TableID == "" {
		missing = append(missing, "table_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("feishu is enabled but missing %s (FEISHU_APP_ID/FEISHU_APP_SECRET env vars are also honoured)", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
}
