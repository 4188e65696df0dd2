package curation

import (
	"time"

	"curator/internal/queue"
)

// ItemOutcome describes how one queue item ended.
type ItemOutcome struct {
	ItemID           int64
	Platform         string
	ContentID        string
	Title            string
	URL              string
	Status           queue.Status
	TranscriptMethod string
	ItemDir          string
	RecordID         string
	Err              error
	Duration         time.Duration
}

// Summary totals a batch. Items interrupted by cancellation appear in
// Outcomes with pending status but are not counted as processed.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Outcomes  []ItemOutcome
	Duration  time.Duration
}

func (s *Summary) add(o ItemOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case queue.StatusCompleted:
		s.Processed++
		s.Succeeded++
	case queue.StatusFailed:
		s.Processed++
		s.Failed++
	}
}
