package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/ytdlp"
)

// Option configures a Scanner.
type Option func(*Scanner)

// WithPlatformScanner registers or replaces the scanner for platform.
func WithPlatformScanner(platform ledger.Platform, ps PlatformScanner) Option {
	return func(s *Scanner) {
		if ps != nil {
			s.platforms[platform] = ps
		}
	}
}

// WithClock overrides the time source used for missing upload dates.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// Scanner fans out over sources and filters their listings.
type Scanner struct {
	checker   ProcessedChecker
	platforms map[ledger.Platform]PlatformScanner
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a scanner. runner backs the YouTube listing; checker filters
// already-processed ids and may be nil.
func New(runner ytdlp.Runner, checker ProcessedChecker, logger *slog.Logger, opts ...Option) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "scanner")
	s := &Scanner{
		checker:   checker,
		platforms: make(map[ledger.Platform]PlatformScanner, len(ledger.KnownPlatforms)),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := s.platforms[ledger.PlatformYouTube]; !ok && runner != nil {
		s.platforms[ledger.PlatformYouTube] = NewYouTubeScanner(runner, s.now, logger)
	}
	for _, platform := range ledger.KnownPlatforms {
		if _, ok := s.platforms[platform]; !ok {
			s.platforms[platform] = unsupportedScanner{platform: platform, logger: logger}
		}
	}
	return s
}

// Scan lists one source and returns the candidates that survive filtering.
// Failures are logged and produce an empty result.
func (s *Scanner) Scan(ctx context.Context, source config.Source, limit int) []CandidateItem {
	attrs := []logging.Attr{
		logging.String(logging.FieldSource, source.Name),
		logging.String(logging.FieldPlatform, source.Platform),
	}
	if !source.Enabled {
		s.logger.Debug("source disabled, skipping", logging.Args(attrs...)...)
		return nil
	}
	if strings.TrimSpace(source.URL) == "" {
		logging.WarnWithContext(s.logger, "source has no url", "scan_source_skipped",
			append(attrs,
				logging.String(logging.FieldErrorHint, "set url for this [[sources]] entry"),
				logging.String(logging.FieldImpact, "source not scanned"),
			)...)
		return nil
	}
	platform, known := ledger.ParsePlatform(source.Platform)
	ps, ok := s.platforms[platform]
	if !known || !ok {
		logging.WarnWithContext(s.logger, "unsupported source platform", "scan_source_skipped",
			append(attrs, logging.String(logging.FieldImpact, "source not scanned"))...)
		return nil
	}

	raw, err := ps.List(ctx, source, limit)
	if err != nil {
		logging.WarnWithContext(s.logger, "source scan failed", "scan_source_failed",
			append(attrs,
				logging.Error(err),
				logging.String("error_class", services.ErrorClass(err)),
				logging.String(logging.FieldErrorHint, "check the source url and that yt-dlp is up to date"),
				logging.String(logging.FieldImpact, "no candidates from this source this run"),
			)...)
		return nil
	}

	minSeconds := source.MinDurationMinutes * 60
	out := make([]CandidateItem, 0, len(raw))
	skippedShort, skippedSeen := 0, 0
	for _, item := range raw {
		if item.DurationSeconds < minSeconds {
			skippedShort++
			continue
		}
		if s.checker != nil && s.checker.IsProcessed(platform, item.ID) {
			skippedSeen++
			continue
		}
		out = append(out, item)
	}
	s.logger.Info("source scanned",
		logging.Args(append(attrs,
			logging.Int("listed", len(raw)),
			logging.Int("candidates", len(out)),
			logging.Int("too_short", skippedShort),
			logging.Int("already_processed", skippedSeen),
		)...)...,
	)
	return out
}

// ScanAll scans every source in order and concatenates the results. A
// canceled context stops the loop and returns what was collected.
func (s *Scanner) ScanAll(ctx context.Context, sources []config.Source, limit int) []CandidateItem {
	var all []CandidateItem
	for _, source := range sources {
		if ctx.Err() != nil {
			break
		}
		all = append(all, s.Scan(ctx, source, limit)...)
	}
	return all
}

// FilterSources keeps the sources of platform. An empty platform keeps all.
func FilterSources(sources []config.Source, platform string) []config.Source {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return sources
	}
	out := make([]config.Source, 0, len(sources))
	for _, source := range sources {
		if strings.EqualFold(source.Platform, platform) {
			out = append(out, source)
		}
	}
	return out
}
