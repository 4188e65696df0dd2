package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAcquiring  Status = "acquiring"
	StatusRewriting  Status = "rewriting"
	StatusPublishing Status = "publishing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusAcquiring,
	StatusRewriting,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAcquiring:  {},
	StatusRewriting:  {},
	StatusPublishing: {},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// NewItem is the candidate data captured when an item is enqueued.
type NewItem struct {
	Platform        string
	ContentID       string
	Title           string
	URL             string
	SourceName      string
	Tags            []string
	DurationSeconds int
	DurationDisplay string
	PublishedAt     string
	Views           int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID               int64
	Platform         string
	ContentID        string
	Title            string
	URL              string
	SourceName       string
	Tags             []string
	DurationSeconds  int
	DurationDisplay  string
	PublishedAt      string
	Views            int
	Status           Status
	ErrorMessage     string
	ItemDir          string
	TranscriptMethod string
	RecordID         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsActive reports whether the item still has work ahead of it.
func (i Item) IsActive() bool {
	return i.Status == StatusPending || i.IsProcessing()
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}
