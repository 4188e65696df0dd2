package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const itemColumns = "id, platform, content_id, title, url, source_name, tags_json, duration_seconds, duration_display, published_at, views, status, error_message, item_dir, transcript_method, record_id, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		platform         string
		contentID        string
		title            sql.NullString
		url              string
		sourceName       sql.NullString
		tagsJSON         sql.NullString
		durationSeconds  sql.NullInt64
		durationDisplay  sql.NullString
		publishedAt      sql.NullString
		views            sql.NullInt64
		statusStr        string
		errorMessage     sql.NullString
		itemDir          sql.NullString
		transcriptMethod sql.NullString
		recordID         sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&platform,
		&contentID,
		&title,
		&url,
		&sourceName,
		&tagsJSON,
		&durationSeconds,
		&durationDisplay,
		&publishedAt,
		&views,
		&statusStr,
		&errorMessage,
		&itemDir,
		&transcriptMethod,
		&recordID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		Platform:         platform,
		ContentID:        contentID,
		Title:            title.String,
		URL:              url,
		SourceName:       sourceName.String,
		Tags:             decodeTags(tagsJSON.String),
		DurationSeconds:  int(durationSeconds.Int64),
		DurationDisplay:  durationDisplay.String,
		PublishedAt:      publishedAt.String,
		Views:            int(views.Int64),
		Status:           Status(statusStr),
		ErrorMessage:     errorMessage.String,
		ItemDir:          itemDir.String,
		TranscriptMethod: transcriptMethod.String,
		RecordID:         recordID.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func encodeTags(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return string(data)
}

func decodeTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
