package feishu

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"curator/internal/archive"
	"curator/internal/logging"
	"curator/internal/services"
)

// ErrNothingToPublish reports an item directory without a rewritten article.
var ErrNothingToPublish = errors.New("no rewritten article to publish")

// RecordWriter is the subset of Client used by Publisher.
type RecordWriter interface {
	AddRecord(ctx context.Context, fields map[string]any) (string, error)
	UpdateRecord(ctx context.Context, recordID string, fields map[string]any) error
	UploadImage(ctx context.Context, path string) (string, error)
}

// Publisher pushes archived items into the Bitable table.
type Publisher struct {
	api    RecordWriter
	logger *slog.Logger
}

// NewPublisher wires a publisher around api.
func NewPublisher(api RecordWriter, logger *slog.Logger) *Publisher {
	return &Publisher{api: api, logger: logging.NewComponentLogger(logger, "feishu")}
}

// Publish uploads the item at itemDir and returns its record id. An existing
// record id in metadata.md is updated in place; a new id is written back.
func (p *Publisher) Publish(ctx context.Context, itemDir string) (string, error) {
	logger := logging.WithContext(ctx, p.logger)
	meta, err := archive.ReadMetadata(itemDir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "publishing", "read metadata", itemDir, err)
	}
	rewritten, err := archive.ReadRewritten(itemDir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "publishing", "read article", itemDir, err)
	}
	if rewritten == "" {
		return "", services.Wrap(services.ErrValidation, "publishing", "read article", itemDir, ErrNothingToPublish)
	}

	coverToken, coverName := "", ""
	if cover := archive.FindCover(itemDir); cover != "" {
		token, err := p.api.UploadImage(ctx, cover)
		if err != nil {
			logging.WarnWithContext(logger, "cover upload failed", "cover_upload_failed",
				logging.String("path", cover),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record is created without a cover image"),
				logging.String(logging.FieldErrorHint, "check feishu drive permissions for the app"),
			)
		} else {
			coverToken, coverName = token, filepath.Base(cover)
		}
	}

	fields := BuildFields(meta, rewritten, coverToken, coverName)
	if meta.RecordID != "" {
		if err := p.api.UpdateRecord(ctx, meta.RecordID, fields); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "publishing", "update record", meta.RecordID, err)
		}
		logger.Info("feishu record updated", logging.String("record_id", meta.RecordID))
		return meta.RecordID, nil
	}

	recordID, err := p.api.AddRecord(ctx, fields)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publishing", "add record", meta.ContentID, err)
	}
	meta.RecordID = recordID
	if err := archive.WriteMetadata(itemDir, meta); err != nil {
		return recordID, services.Wrap(services.ErrTransient, "publishing", "write record id", itemDir, err)
	}
	logger.Info("feishu record created",
		logging.String("record_id", recordID),
		logging.String(logging.FieldContentID, meta.ContentID),
	)
	return recordID, nil
}
