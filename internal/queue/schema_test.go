package queue_test

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"curator/internal/queue"
)

func TestOpenPathRejectsForeignSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := queue.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	store.Close()

	reopened, err := queue.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen with matching version: %v", err)
	}
	reopened.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	db.Close()

	if _, err := queue.OpenPath(path); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
