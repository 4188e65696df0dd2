package testsupport

import (
	"context"
	"testing"

	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/queue"
)

// MustOpenStore opens the queue database named by cfg and closes it when the
// test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustEnqueue adds a pending item whose URL is the canonical platform URL for
// contentID.
func MustEnqueue(t testing.TB, store *queue.Store, platform ledger.Platform, contentID, title string) *queue.Item {
	t.Helper()
	item, err := store.Enqueue(context.Background(), queue.NewItem{
		Platform:  string(platform),
		ContentID: contentID,
		Title:     title,
		URL:       ledger.ContentURL(platform, contentID),
	})
	if err != nil {
		t.Fatalf("enqueue %s/%s: %v", platform, contentID, err)
	}
	return item
}
