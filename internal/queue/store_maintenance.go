package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Health counts items per lifecycle bucket in one query.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	var h HealthSummary
	err := s.db.QueryRowContext(ctx, `
SELECT
	COUNT(1),
	COALESCE(SUM(status = ?), 0),
	COALESCE(SUM(status IN (?, ?, ?)), 0),
	COALESCE(SUM(status = ?), 0),
	COALESCE(SUM(status = ?), 0)
FROM queue_items`,
		StatusPending,
		StatusAcquiring, StatusRewriting, StatusPublishing,
		StatusFailed,
		StatusCompleted,
	).Scan(&h.Total, &h.Pending, &h.Processing, &h.Failed, &h.Completed)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health: %w", err)
	}
	return h, nil
}

// ResetStuckProcessing returns items left in a processing status by a killed
// run to pending.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	n, err := s.moveToPending(ctx, false, StatusAcquiring, StatusRewriting, StatusPublishing)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return n, nil
}

// RetryFailed moves failed items back to pending and clears their error.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	n, err := s.moveToPending(ctx, true, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return n, nil
}

func (s *Store) moveToPending(ctx context.Context, clearError bool, from ...Status) (int64, error) {
	set := "status = ?, updated_at = ?"
	if clearError {
		set += ", error_message = NULL"
	}
	args := []any{StatusPending, time.Now().UTC().Format(time.RFC3339Nano)}
	where, whereArgs := statusIn(from)
	res, err := s.execWithRetry(ctx, "UPDATE queue_items SET "+set+" WHERE "+where, append(args, whereArgs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Remove deletes one item and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Clear deletes items in the given statuses, or every item when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM queue_items`
	var args []any
	if len(statuses) > 0 {
		where, whereArgs := statusIn(statuses)
		query += " WHERE " + where
		args = whereArgs
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

func statusIn(statuses []Status) (string, []any) {
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}
	return "status IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ") + ")", args
}
