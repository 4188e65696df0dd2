// Package mediafmt converts the raw duration, date, and count fields printed by
// the metadata tool into the display and storage forms used across curator.
package mediafmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical published-date layout.
const DateLayout = "2006-01-02"

// FormatDuration renders seconds as H:MM:SS when at least an hour, otherwise M:SS.
// Negative input is treated as zero.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDurationSeconds parses a possibly fractional duration and truncates it
// toward zero. Unparsable, NA, negative, and out-of-range values yield 0.
func ParseDurationSeconds(raw string) int {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || value < 0 || value >= math.MaxInt {
		return 0
	}
	return int(value)
}

// FormatCompactDate turns an 8-digit YYYYMMDD string into YYYY-MM-DD. Any other
// input is returned unchanged.
func FormatCompactDate(raw string) string {
	if len(raw) != 8 {
		return raw
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return raw
		}
	}
	return raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
}

// NormalizeUploadDate returns the display date for a raw upload date. Missing
// values (empty, NA, unavailable, none) resolve to the UTC date of now.
func NormalizeUploadDate(raw string, now time.Time) string {
	trimmed := strings.TrimSpace(raw)
	if isMissing(trimmed) {
		return now.UTC().Format(DateLayout)
	}
	return FormatCompactDate(trimmed)
}

// ParseCount parses a view or play count. Unparsable or negative values yield 0.
func ParseCount(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || value < 0 || value >= math.MaxInt {
		return 0
	}
	return int(value)
}

// DateToMillis converts a YYYY-MM-DD date to the Unix millisecond timestamp of
// UTC midnight on that day.
func DateToMillis(date string) (int64, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	return parsed.UTC().UnixMilli(), nil
}

func isMissing(value string) bool {
	switch strings.ToLower(value) {
	case "", "na", "n/a", "unavailable", "none", "null":
		return true
	default:
		return false
	}
}
