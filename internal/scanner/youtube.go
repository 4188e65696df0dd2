package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/ytdlp"
)

// YouTubeScanner lists channel uploads through yt-dlp.
type YouTubeScanner struct {
	runner ytdlp.Runner
	now    func() time.Time
	logger *slog.Logger
}

// NewYouTubeScanner constructs a scanner backed by runner.
func NewYouTubeScanner(runner ytdlp.Runner, now func() time.Time, logger *slog.Logger) *YouTubeScanner {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &YouTubeScanner{runner: runner, now: now, logger: logger}
}

// List returns up to limit recent uploads of the source channel.
func (s *YouTubeScanner) List(ctx context.Context, source config.Source, limit int) ([]CandidateItem, error) {
	url := ChannelVideosURL(source.URL)
	res, err := s.runner.Run(ctx, ytdlp.ListArgs(url, limit, ListDelimiter)...)
	if err != nil {
		return nil, err
	}
	items, discarded := ParseListing(res.Stdout, ListDelimiter, ledger.PlatformYouTube, source, s.now().UTC())
	if discarded > 0 {
		s.logger.Debug("discarded malformed listing lines",
			logging.String(logging.FieldSource, source.Name),
			logging.Int("discarded", discarded),
		)
	}
	return items, nil
}

// ChannelVideosURL points a channel URL at its uploads tab. Watch, playlist,
// and already-scoped URLs are left alone.
func ChannelVideosURL(raw string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	if url == "" {
		return url
	}
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, "/videos") || strings.Contains(lower, "watch?") ||
		strings.Contains(lower, "playlist?") || strings.HasSuffix(lower, "/streams") ||
		strings.HasSuffix(lower, "/shorts") {
		return url
	}
	return url + "/videos"
}

// unsupportedScanner reports no items for platforms without a listing backend.
type unsupportedScanner struct {
	platform ledger.Platform
	logger   *slog.Logger
}

func (s unsupportedScanner) List(_ context.Context, source config.Source, _ int) ([]CandidateItem, error) {
	s.logger.Debug("platform listing not supported",
		logging.String(logging.FieldPlatform, string(s.platform)),
		logging.String(logging.FieldSource, source.Name),
	)
	return nil, nil
}
