package archive

import (
	"os"
	"testing"
	"time"

	"curator/internal/ledger"
	"curator/internal/logging"
)

func TestCleanWorkspacesRemovesOnlyStale(t *testing.T) {
	store := New(t.TempDir())
	now := time.Now()

	stale := store.ItemDir("2024-01-02", ledger.PlatformYouTube, "src", "old")
	fresh := store.ItemDir("2024-01-02", ledger.PlatformYouTube, "src", "new")
	for _, dir := range []string{stale, fresh} {
		if err := WriteMetadata(dir, Metadata{Title: "t", Platform: "youtube", ContentID: "x"}); err != nil {
			t.Fatalf("WriteMetadata: %v", err)
		}
		if err := os.MkdirAll(Workspace(dir), 0o755); err != nil {
			t.Fatalf("mkdir workspace: %v", err)
		}
	}
	old := now.Add(-48 * time.Hour)
	if err := os.Chtimes(Workspace(stale), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := store.CleanWorkspaces(24*time.Hour, now, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != Workspace(stale) {
		t.Fatalf("removed = %v", result.Removed)
	}
	if _, err := os.Stat(Workspace(fresh)); err != nil {
		t.Fatalf("fresh workspace removed: %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("item dir removed with workspace: %v", err)
	}
}
