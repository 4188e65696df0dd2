package curation

import (
	"errors"
	"testing"

	"curator/internal/ledger"
	"curator/internal/scanner"
)

func selectionFixture() []scanner.CandidateItem {
	return []scanner.CandidateItem{
		{ID: "x1", Platform: ledger.PlatformXiaoyuzhou},
		{ID: "b1", Platform: ledger.PlatformBilibili},
		{ID: "y1", Platform: ledger.PlatformYouTube},
		{ID: "y2", Platform: ledger.PlatformYouTube},
		{ID: "b2", Platform: ledger.PlatformBilibili},
	}
}

func ids(items []scanner.CandidateItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestGroupCandidatesKeepsScanOrderWithinPlatform(t *testing.T) {
	got := ids(GroupCandidates(selectionFixture()))
	want := []string{"y1", "y2", "b1", "b2", "x1"}
	if !equalIDs(got, want) {
		t.Fatalf("GroupCandidates = %v, want %v", got, want)
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single", input: "2", want: []string{"y2"}},
		{name: "list and range", input: "1,3-4", want: []string{"y1", "b1", "b2"}},
		{name: "typed order kept", input: "5,1", want: []string{"x1", "y1"}},
		{name: "reversed range", input: "4-3", want: []string{"b1", "b2"}},
		{name: "duplicates dropped", input: "2,2,1-2", want: []string{"y2", "y1"}},
		{name: "out of range ignored", input: "0,5,9", want: []string{"x1"}},
		{name: "all", input: "ALL", want: []string{"y1", "y2", "b1", "b2", "x1"}},
		{name: "platform", input: "bilibili", want: []string{"b1", "b2"}},
		{name: "spaces", input: " 1 , 2 ", want: []string{"y1", "y2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.input, selectionFixture())
			if err != nil {
				t.Fatalf("ParseSelection(%q): %v", tt.input, err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Fatalf("ParseSelection(%q) = %v, want %v", tt.input, ids(got), tt.want)
			}
		})
	}
}

func TestParseSelectionQuit(t *testing.T) {
	for _, input := range []string{"q", "quit", "Q"} {
		got, err := ParseSelection(input, selectionFixture())
		if err != nil || got != nil {
			t.Fatalf("ParseSelection(%q) = %v, %v; want nil, nil", input, got, err)
		}
	}
}

func TestParseSelectionEmptyIsError(t *testing.T) {
	for _, input := range []string{"", "7-9", "42"} {
		if _, err := ParseSelection(input, selectionFixture()); !errors.Is(err, ErrEmptySelection) {
			t.Fatalf("ParseSelection(%q) err = %v, want ErrEmptySelection", input, err)
		}
	}
}

func TestParseSelectionRejectsGarbage(t *testing.T) {
	for _, input := range []string{"abc", "1-x", "1,two"} {
		_, err := ParseSelection(input, selectionFixture())
		if err == nil || errors.Is(err, ErrEmptySelection) {
			t.Fatalf("ParseSelection(%q) err = %v, want parse error", input, err)
		}
	}
}
