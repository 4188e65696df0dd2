package curation

import (
	"context"
	"log/slog"
	"time"

	"curator/internal/archive"
	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/preflight"
	"curator/internal/queue"
	"curator/internal/rewrite"
	"curator/internal/scanner"
	"curator/internal/subtitles"
	"curator/internal/ytdlp"
)

// Ledger is the dedup ledger surface the driver needs.
type Ledger interface {
	Load() error
	IsProcessed(platform ledger.Platform, id string) bool
	Record(platform ledger.Platform, id string, entry ledger.Entry) error
	Save() error
}

// SourceScanner lists candidates across sources.
type SourceScanner interface {
	ScanAll(ctx context.Context, sources []config.Source, limit int) []scanner.CandidateItem
}

// TranscriptAcquirer runs the subtitle ladder and paid fallback for one URL.
type TranscriptAcquirer interface {
	Download(ctx context.Context, url, platform, workspace string) (subtitles.TranscriptResult, error)
}

// ArticleRewriter turns a transcript into the published article.
type ArticleRewriter interface {
	Enabled() bool
	Rewrite(ctx context.Context, req rewrite.Request) (string, error)
}

// ItemPublisher pushes an archived item to the remote table.
type ItemPublisher interface {
	Publish(ctx context.Context, itemDir string) (string, error)
}

// CoverFetcher downloads a cover image for url into dir.
type CoverFetcher func(ctx context.Context, url, dir string) (string, error)

// MetadataFetcher resolves single-item metadata for URL mode.
type MetadataFetcher func(ctx context.Context, url string) (ytdlp.VideoInfo, error)

// Selector chooses which candidates to process. Candidates arrive grouped by
// platform in display order. An empty result ends the run without error.
type Selector func(ctx context.Context, candidates []scanner.CandidateItem) ([]scanner.CandidateItem, error)

// Option customizes the driver.
type Option func(*Driver)

// WithNotifier sets the batch notifier.
func WithNotifier(n notifications.Service) Option {
	return func(d *Driver) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithRewriter enables the rewrite stage.
func WithRewriter(r ArticleRewriter) Option {
	return func(d *Driver) { d.rewriter = r }
}

// WithPublisher enables the publish stage.
func WithPublisher(p ItemPublisher) Option {
	return func(d *Driver) { d.publisher = p }
}

// WithCoverFetcher overrides cover downloads.
func WithCoverFetcher(f CoverFetcher) Option {
	return func(d *Driver) { d.fetchCover = f }
}

// WithMetadataFetcher overrides URL-mode metadata lookups.
func WithMetadataFetcher(f MetadataFetcher) Option {
	return func(d *Driver) { d.fetchMetadata = f }
}

// WithPreflight replaces the readiness checks run before a batch.
func WithPreflight(check func(ctx context.Context) []preflight.Result) Option {
	return func(d *Driver) { d.preflight = check }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// Driver composes the scanner, queue, acquisition pipeline and ledger.
type Driver struct {
	cfg           *config.Config
	ledger        Ledger
	scanner       SourceScanner
	acquirer      TranscriptAcquirer
	queue         *queue.Store
	archive       *archive.Store
	rewriter      ArticleRewriter
	publisher     ItemPublisher
	notifier      notifications.Service
	fetchCover    CoverFetcher
	fetchMetadata MetadataFetcher
	preflight     func(ctx context.Context) []preflight.Result
	now           func() time.Time
	logger        *slog.Logger

	ledgerLoaded bool
	// channels holds uploader names resolved in URL mode, keyed by channelKey.
	channels map[string]string
}

func channelKey(platform, id string) string { return platform + "/" + id }

// Components bundles the required collaborators.
type Components struct {
	Ledger   Ledger
	Scanner  SourceScanner
	Acquirer TranscriptAcquirer
	Queue    *queue.Store
	Archive  *archive.Store
	// Runner backs the default cover and metadata fetchers.
	Runner ytdlp.Runner
}

// New builds a driver. Rewrite and publish stages stay off unless enabled
// with WithRewriter and WithPublisher.
func New(cfg *config.Config, parts Components, logger *slog.Logger, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		ledger:   parts.Ledger,
		scanner:  parts.Scanner,
		acquirer: parts.Acquirer,
		queue:    parts.Queue,
		archive:  parts.Archive,
		notifier: notifications.NewService(cfg),
		now:      time.Now,
		channels: make(map[string]string),
		logger:   logging.NewComponentLogger(logger, "curation"),
	}
	if parts.Runner != nil {
		runner := parts.Runner
		d.fetchCover = func(ctx context.Context, url, dir string) (string, error) {
			return ytdlp.FetchThumbnail(ctx, runner, url, dir)
		}
		d.fetchMetadata = func(ctx context.Context, url string) (ytdlp.VideoInfo, error) {
			return ytdlp.FetchMetadata(ctx, runner, url)
		}
	}
	d.preflight = func(ctx context.Context) []preflight.Result {
		return preflight.RunAll(ctx, cfg)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) loadLedger() error {
	if d.ledgerLoaded {
		return nil
	}
	if err := d.ledger.Load(); err != nil {
		return err
	}
	d.ledgerLoaded = true
	return nil
}
