package archive

import (
	"log/slog"
	"os"
	"time"

	"curator/internal/logging"
)

// CleanupResult lists the workspaces removed and the ones that could not be.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a workspace path with its removal error.
type CleanupError struct {
	Path string
	Err  error
}

// CleanWorkspaces removes subtitle workspaces last modified before now-maxAge.
// Workspaces normally vanish when an item finishes; leftovers come from runs
// that were killed mid-download.
func (s *Store) CleanWorkspaces(maxAge time.Duration, now time.Time, logger *slog.Logger) CleanupResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result CleanupResult
	items, err := s.List()
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: s.root, Err: err})
		return result
	}
	cutoff := now.Add(-maxAge)
	for _, dir := range items {
		ws := Workspace(dir)
		info, err := os.Stat(ws)
		if err != nil || !info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(ws); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: ws, Err: err})
			logging.WarnWithContext(logger, "failed to remove stale workspace", "workspace_cleanup_failed",
				logging.String("path", ws),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check archive_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, ws)
		logger.Info("removed stale workspace",
			logging.String("path", ws),
			logging.Duration("age", now.Sub(info.ModTime())),
			logging.String(logging.FieldEventType, "workspace_cleanup"),
		)
	}
	return result
}
