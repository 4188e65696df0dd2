package scanner

import (
	"context"

	"curator/internal/config"
	"curator/internal/ledger"
)

// CandidateItem is a newly discovered item eligible for processing.
type CandidateItem struct {
	ID              string
	Title           string
	URL             string
	DurationSeconds int
	DurationDisplay string
	// PublishedAt is YYYY-MM-DD.
	PublishedAt string
	Views       int
	Platform    ledger.Platform
	SourceName  string
	Tags        []string
}

// PlatformScanner lists the most recent items of one source.
type PlatformScanner interface {
	List(ctx context.Context, source config.Source, limit int) ([]CandidateItem, error)
}

// ProcessedChecker reports whether an item was already handled.
type ProcessedChecker interface {
	IsProcessed(platform ledger.Platform, id string) bool
}
