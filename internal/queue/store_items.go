package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Enqueue inserts a pending item. When the same platform and content id is
// already pending or in flight, that item is returned unchanged.
func (s *Store) Enqueue(ctx context.Context, in NewItem) (*Item, error) {
	if strings.TrimSpace(in.Platform) == "" || strings.TrimSpace(in.ContentID) == "" {
		return nil, errors.New("enqueue: platform and content id are required")
	}
	existing, err := s.FindActive(ctx, in.Platform, in.ContentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            platform, content_id, title, url, source_name, tags_json,
            duration_seconds, duration_display, published_at, views,
            status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Platform,
		in.ContentID,
		nullableString(in.Title),
		in.URL,
		nullableString(in.SourceName),
		encodeTags(in.Tags),
		in.DurationSeconds,
		nullableString(in.DurationDisplay),
		nullableString(in.PublishedAt),
		in.Views,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. A missing item returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindActive returns the pending or in-flight item for a content id, if any.
func (s *Store) FindActive(ctx context.Context, platform, contentID string) (*Item, error) {
	active := []Status{StatusPending, StatusAcquiring, StatusRewriting, StatusPublishing}
	args := []any{platform, contentID}
	for _, status := range active {
		args = append(args, status)
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE platform = ? AND content_id = ? AND status IN (`+makePlaceholders(len(active))+`)
         ORDER BY id LIMIT 1`,
		args...,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET title = ?, url = ?, source_name = ?, tags_json = ?, duration_seconds = ?,
             duration_display = ?, published_at = ?, views = ?, status = ?, error_message = ?,
             item_dir = ?, transcript_method = ?, record_id = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.Title),
		item.URL,
		nullableString(item.SourceName),
		encodeTags(item.Tags),
		item.DurationSeconds,
		nullableString(item.DurationDisplay),
		nullableString(item.PublishedAt),
		item.Views,
		item.Status,
		nullableString(item.ErrorMessage),
		nullableString(item.ItemDir),
		nullableString(item.TranscriptMethod),
		nullableString(item.RecordID),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// NextPending returns the oldest pending item, or nil when none remain.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY id LIMIT 1`, StatusPending)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
