package curation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"curator/internal/ledger"
	"curator/internal/scanner"
)

// ErrEmptySelection reports input that selected no candidate.
var ErrEmptySelection = errors.New("selection matched no items")

// GroupCandidates orders candidates by platform display order, keeping scan
// order within a platform. Unknown platforms sort last.
func GroupCandidates(items []scanner.CandidateItem) []scanner.CandidateItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b scanner.CandidateItem) int {
		return platformRank(a.Platform) - platformRank(b.Platform)
	})
	return out
}

func platformRank(p ledger.Platform) int {
	if idx := slices.Index(ledger.KnownPlatforms, p); idx >= 0 {
		return idx
	}
	return len(ledger.KnownPlatforms)
}

// ParseSelection resolves user input against candidates numbered 1..N in
// grouped order. Accepted forms: "1,3-5", "all", a platform name, and "q" or
// "quit", which returns nil without error. Numbers outside 1..N are ignored.
// The result follows the order the numbers were typed, without duplicates.
func ParseSelection(input string, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
	grouped := GroupCandidates(items)
	text := strings.ToLower(strings.TrimSpace(input))
	switch text {
	case "":
		return nil, ErrEmptySelection
	case "q", "quit":
		return nil, nil
	case "all", "a":
		if len(grouped) == 0 {
			return nil, ErrEmptySelection
		}
		return grouped, nil
	}
	if platform, ok := ledger.ParsePlatform(text); ok {
		var out []scanner.CandidateItem
		for _, item := range grouped {
			if item.Platform == platform {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: no %s items", ErrEmptySelection, platform)
		}
		return out, nil
	}

	picked := make(map[int]struct{})
	var out []scanner.CandidateItem
	take := func(n int) {
		if n < 1 || n > len(grouped) {
			return
		}
		if _, dup := picked[n]; dup {
			return
		}
		picked[n] = struct{}{}
		out = append(out, grouped[n-1])
	}
	for part := range strings.SplitSeq(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			if start > end {
				start, end = end, start
			}
			for n := max(start, 1); n <= min(end, len(grouped)); n++ {
				take(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		take(n)
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}
