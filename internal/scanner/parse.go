package scanner

import (
	"slices"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/mediafmt"
)

// ListDelimiter separates fields in the listing template.
const ListDelimiter = "\t"

// minListFields is the fewest fields (id, title, duration) a usable line carries.
const minListFields = 3

// ParseListing converts delimited listing output into candidates for source.
// Lines with fewer than three fields or an empty id are discarded and counted.
func ParseListing(output, delimiter string, platform ledger.Platform, source config.Source, now time.Time) ([]CandidateItem, int) {
	if delimiter == "" {
		delimiter = ListDelimiter
	}
	var items []CandidateItem
	discarded := 0
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, delimiter)
		if len(fields) < minListFields {
			discarded++
			continue
		}
		id := strings.TrimSpace(fields[0])
		if id == "" || strings.EqualFold(id, "NA") {
			discarded++
			continue
		}
		seconds := mediafmt.ParseDurationSeconds(fields[2])
		item := CandidateItem{
			ID:              id,
			Title:           strings.TrimSpace(fields[1]),
			URL:             ledger.ContentURL(platform, id),
			DurationSeconds: seconds,
			DurationDisplay: mediafmt.FormatDuration(seconds),
			PublishedAt:     mediafmt.NormalizeUploadDate(fieldAt(fields, 3), now),
			Views:           mediafmt.ParseCount(fieldAt(fields, 4)),
			Platform:        platform,
			SourceName:      source.Name,
			Tags:            slices.Clone(source.Tags),
		}
		items = append(items, item)
	}
	return items, discarded
}

func fieldAt(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
