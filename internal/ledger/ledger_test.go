package ledger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock(ts string) func() time.Time {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return parsed }
}

func TestOpenMissingFileYieldsKnownPlatforms(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "processed.json"), nil)

	snap := store.Snapshot()
	for _, p := range KnownPlatforms {
		bucket, ok := snap[p]
		if !ok {
			t.Fatalf("expected platform %q pre-populated", p)
		}
		if len(bucket) != 0 {
			t.Fatalf("expected empty bucket for %q", p)
		}
	}
	if store.IsProcessed(PlatformYouTube, "abc") {
		t.Fatal("empty ledger should not report processed ids")
	}
}

func TestRecordUpsertsLastWriteWins(t *testing.T) {
	store := Open("", nil, WithClock(fixedClock("2025-01-02T03:04:05Z")))

	if err := store.Record(PlatformYouTube, "abc", Entry{Title: "first", Success: false}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(PlatformYouTube, "abc", Entry{Title: "second", Success: true}); err != nil {
		t.Fatal(err)
	}
	if !store.IsProcessed(PlatformYouTube, "abc") {
		t.Fatal("expected recorded id to be processed")
	}
	if store.IsProcessed(PlatformBilibili, "abc") {
		t.Fatal("processed ids are scoped per platform")
	}

	entry := store.Snapshot()[PlatformYouTube]["abc"]
	if entry.Title != "second" || !entry.Success {
		t.Fatalf("expected last write to win, got %+v", entry)
	}
	if entry.ProcessedAt != "2025-01-02T03:04:05Z" {
		t.Fatalf("unexpected processed_at %q", entry.ProcessedAt)
	}
	if entry.Platform != PlatformYouTube || entry.ContentID != "abc" {
		t.Fatalf("expected key fields stamped, got %+v", entry)
	}
}

func TestRecordRejectsEmptyKey(t *testing.T) {
	store := Open("", nil)
	if err := store.Record(PlatformYouTube, " ", Entry{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store := Open("", nil)
	if err := store.Record(PlatformBilibili, "BV1xx411c7mD", Entry{Title: "t"}); err != nil {
		t.Fatal(err)
	}
	snap := store.Snapshot()
	delete(snap[PlatformBilibili], "BV1xx411c7mD")
	snap[PlatformYouTube]["new"] = Entry{}

	if !store.IsProcessed(PlatformBilibili, "BV1xx411c7mD") {
		t.Fatal("mutating a snapshot must not affect the store")
	}
	if store.IsProcessed(PlatformYouTube, "new") {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}

func TestSaveRoundTripIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	clock := fixedClock("2025-06-01T12:00:00Z")

	store := Open(path, nil, WithClock(clock))
	mustRecord(t, store, PlatformYouTube, "dQw4w9WgXcQ", Entry{Title: "Video", SourceName: "Lex", PublishedAt: "2025-05-30", DurationDisplay: "1:14:37", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Success: true})
	mustRecord(t, store, PlatformBilibili, "BV1xx411c7mD", Entry{Title: "视频", Success: false})
	mustRecord(t, store, Platform("vimeo"), "123", Entry{Title: "kept"})

	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	reloaded := Open(path, nil, WithClock(clock))
	if err := reloaded.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip changed document:\nfirst:  %s\nsecond: %s", first, second)
	}
	if !reloaded.IsProcessed(Platform("vimeo"), "123") {
		t.Fatal("unknown platforms must be preserved")
	}
	if reloaded.LastUpdated() != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected last_updated %q", reloaded.LastUpdated())
	}
}

func TestSaveCreatesMissingStateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "state", "processed.json")
	store := Open(path, nil)
	mustRecord(t, store, PlatformBilibili, "BV1xx411c7mD", Entry{Success: true})
	if err := store.Save(); err != nil {
		t.Fatalf("Save on fresh state path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected ledger file: %v", err)
	}

	reloaded := Open(path, nil)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if !reloaded.IsProcessed(PlatformBilibili, "BV1xx411c7mD") {
		t.Fatal("expected saved entry after reload")
	}
}

func TestSaveWritesStatsAndLastUpdated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "processed.json")
	store := Open(path, nil, WithClock(fixedClock("2025-06-01T12:00:00Z")))
	mustRecord(t, store, PlatformYouTube, "a", Entry{Success: true})
	mustRecord(t, store, PlatformYouTube, "b", Entry{Success: false})
	mustRecord(t, store, PlatformXiaoyuzhou, "c", Entry{Success: true})
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Processed   map[string]map[string]json.RawMessage `json:"processed"`
		Stats       Stats                                 `json:"stats"`
		LastUpdated string                                `json:"last_updated"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.LastUpdated != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected last_updated %q", doc.LastUpdated)
	}
	if doc.Stats.TotalProcessed != 3 || doc.Stats.TotalSucceeded != 2 || doc.Stats.TotalFailed != 1 {
		t.Fatalf("unexpected stats %+v", doc.Stats)
	}
	if doc.Stats.ByPlatform[PlatformYouTube] != 2 || doc.Stats.ByPlatform[PlatformBilibili] != 0 {
		t.Fatalf("unexpected per-platform stats %+v", doc.Stats.ByPlatform)
	}
	if _, ok := doc.Processed["bilibili"]; !ok {
		t.Fatal("expected empty bilibili bucket to be persisted")
	}
}

func TestCorruptFileDegradesToEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := Open(path, nil)
	for _, p := range KnownPlatforms {
		if len(store.Snapshot()[p]) != 0 {
			t.Fatalf("expected empty ledger for %q", p)
		}
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load should degrade, got %v", err)
	}
}

func TestEmptyFileDegradesToEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := Open(path, nil)
	if got := len(store.Entries("")); got != 0 {
		t.Fatalf("expected no entries, got %d", got)
	}
}

func TestLoadFillsMissingPlatforms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	doc := `{"processed":{"youtube":{"abc":{"title":"x","success":true}}}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	store := Open(path, nil)
	snap := store.Snapshot()
	if _, ok := snap[PlatformXiaoyuzhou]; !ok {
		t.Fatal("expected xiaoyuzhou bucket to be filled in")
	}
	if !store.IsProcessed(PlatformYouTube, "abc") {
		t.Fatal("expected youtube entry loaded")
	}
}

func TestSaveFailureLeavesPriorFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed.json")
	store := Open(path, nil)
	mustRecord(t, store, PlatformYouTube, "a", Entry{Success: true})
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	mustRecord(t, store, PlatformYouTube, "b", Entry{})
	if err := store.Save(); err == nil {
		t.Fatal("expected save to fail in read-only directory")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("failed save must leave the prior file unchanged")
	}
}

func TestEntriesSortedNewestFirst(t *testing.T) {
	store := Open("", nil)
	mustRecord(t, store, PlatformYouTube, "old", Entry{ProcessedAt: "2025-01-01T00:00:00Z"})
	mustRecord(t, store, PlatformBilibili, "new", Entry{ProcessedAt: "2025-03-01T00:00:00Z"})
	mustRecord(t, store, PlatformYouTube, "mid", Entry{ProcessedAt: "2025-02-01T00:00:00Z"})

	all := store.Entries("")
	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.ContentID)
	}
	if strings.Join(ids, ",") != "new,mid,old" {
		t.Fatalf("unexpected order %v", ids)
	}
	if got := store.Entries(PlatformYouTube); len(got) != 2 || got[0].ContentID != "mid" {
		t.Fatalf("unexpected youtube entries %+v", got)
	}
}

func TestParsePlatform(t *testing.T) {
	if p, ok := ParsePlatform(" YouTube "); !ok || p != PlatformYouTube {
		t.Fatalf("ParsePlatform = %q %v", p, ok)
	}
	if _, ok := ParsePlatform("vimeo"); ok {
		t.Fatal("vimeo should not be a known platform")
	}
}

func mustRecord(t *testing.T, store *Store, platform Platform, id string, entry Entry) {
	t.Helper()
	if err := store.Record(platform, id, entry); err != nil {
		t.Fatalf("Record(%s, %s): %v", platform, id, err)
	}
}
