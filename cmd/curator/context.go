package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"curator/internal/archive"
	"curator/internal/config"
	"curator/internal/curation"
	"curator/internal/feishu"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/queue"
	"curator/internal/rewrite"
	"curator/internal/scanner"
	"curator/internal/subtitles"
	"curator/internal/subtitles/transcriptapi"
	"curator/internal/ytdlp"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// openLedger returns the loaded ledger.
func (c *commandContext) openLedger(logger *slog.Logger) (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store := ledger.Open(cfg.LedgerPath(), logger)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return store, nil
}

func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) publisher(logger *slog.Logger) (*feishu.Publisher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Feishu.Enabled {
		return nil, fmt.Errorf("feishu publishing is disabled; set feishu.enabled in %s", c.configLabel())
	}
	return feishu.NewPublisher(feishu.NewClient(cfg.Feishu), logger), nil
}

// withDriver wires the curation driver and closes the queue afterwards.
func (c *commandContext) withDriver(fn func(*curation.Driver) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}
	return c.withStore(func(store *queue.Store) error {
		led := ledger.Open(cfg.LedgerPath(), logger)
		runner := ytdlp.New(cfg.Scan.ToolBinary, cfg.ToolTimeout())
		pipeline := newTranscriptPipeline(cfg, runner, logger)

		var opts []curation.Option
		if cfg.Rewrite.Enabled {
			opts = append(opts, curation.WithRewriter(rewrite.New(cfg.Rewrite, rewrite.NewClient(cfg.Rewrite), logger)))
		}
		if cfg.Feishu.Enabled {
			pub, err := c.publisher(logger)
			if err != nil {
				return err
			}
			opts = append(opts, curation.WithPublisher(pub))
		}

		driver := curation.New(cfg, curation.Components{
			Ledger:   led,
			Scanner:  scanner.New(runner, led, logger),
			Acquirer: pipeline,
			Queue:    store,
			Archive:  archive.New(cfg.Paths.ArchiveDir),
			Runner:   runner,
		}, logger, opts...)
		return fn(driver)
	})
}

func (c *commandContext) configLabel() string {
	if c.configPath != "" {
		return c.configPath
	}
	return "the config file"
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// newTranscriptPipeline runs subtitle extraction under the per-attempt
// timeout instead of the scan listing timeout.
func newTranscriptPipeline(cfg *config.Config, runner *ytdlp.Client, logger *slog.Logger) *subtitles.Pipeline {
	return subtitles.New(cfg, runner.WithTimeout(cfg.AttemptTimeout()), logger,
		subtitles.WithPaidTranscriber(transcriptapi.New(cfg.TranscriptAPI)),
	)
}
