package curation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"curator/internal/archive"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/queue"
	"curator/internal/rewrite"
	"curator/internal/services"
)

const (
	stageAcquire = "acquire"
	stageRewrite = "rewrite"
	stagePublish = "publish"
)

func (d *Driver) processItem(ctx context.Context, item *queue.Item) ItemOutcome {
	started := d.now()
	itemCtx := services.WithRequestID(ctx, uuid.NewString())
	itemCtx = services.WithItemID(itemCtx, item.ID)
	itemCtx = services.WithContent(itemCtx, item.Platform, item.ContentID)
	logger := logging.WithContext(itemCtx, d.logger)
	logger.Info("item started",
		logging.String(logging.FieldEventType, "item_start"),
		logging.String("title", item.Title),
		logging.String("url", item.URL),
		logging.String(logging.FieldSource, item.SourceName),
	)

	// An interrupt lets the in-flight item finish; ProcessPending stops
	// before the next one. Per-call timeouts still bound the work.
	workCtx := context.WithoutCancel(itemCtx)
	acquired, err := d.runItem(workCtx, logger, item)
	persistCtx := workCtx

	if err != nil && services.FailureStatus(err) == queue.StatusPending {
		item.Status = queue.StatusPending
		item.ErrorMessage = ""
		if updErr := d.queue.Update(persistCtx, item); updErr != nil {
			logger.Error("failed to return interrupted item to pending", logging.Error(updErr))
		}
		logger.Info("item interrupted", logging.String(logging.FieldEventType, "item_interrupted"))
		return d.outcome(item, started, err)
	}

	d.recordLedger(logger, item, acquired)

	if err != nil {
		d.handleItemFailure(persistCtx, logger, item, err)
		return d.outcome(item, started, err)
	}

	item.Status = queue.StatusCompleted
	item.ErrorMessage = ""
	if updErr := d.queue.Update(persistCtx, item); updErr != nil {
		logger.Error("failed to persist completed item", logging.Error(updErr))
	}
	logger.Info("item completed",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("transcript_method", item.TranscriptMethod),
		logging.String("record_id", item.RecordID),
		logging.String("item_dir", item.ItemDir),
		logging.Duration("item_duration", d.now().Sub(started)),
	)
	d.notify(persistCtx, "item completed", d.notifier.NotifyItemCompleted(persistCtx, item.Title, item.Platform, item.URL))
	return d.outcome(item, started, nil)
}

// runItem reports whether a transcript was acquired, independently of any
// later rewrite or publish failure.
func (d *Driver) runItem(ctx context.Context, logger *slog.Logger, item *queue.Item) (bool, error) {
	processedAt := d.now().UTC()
	if item.ItemDir == "" {
		item.ItemDir = d.archive.ItemDir(processedAt.Format("2006-01-02"), ledger.Platform(item.Platform), item.SourceName, item.ContentID)
	}
	dir := item.ItemDir
	meta := archive.Metadata{
		Title:           item.Title,
		Platform:        item.Platform,
		ContentID:       item.ContentID,
		URL:             item.URL,
		Source:          item.SourceName,
		Channel:         d.channels[channelKey(item.Platform, item.ContentID)],
		PublishedAt:     item.PublishedAt,
		ProcessedAt:     processedAt.Format(time.RFC3339),
		Duration:        item.DurationDisplay,
		DurationSeconds: item.DurationSeconds,
		Views:           item.Views,
		Tags:            item.Tags,
		RecordID:        item.RecordID,
	}
	if previous, err := archive.ReadMetadata(dir); err == nil && meta.RecordID == "" {
		meta.RecordID = previous.RecordID
	}

	if err := d.transition(ctx, item, queue.StatusAcquiring); err != nil {
		return false, err
	}
	acquireCtx := services.WithStage(ctx, stageAcquire)
	if err := archive.WriteMetadata(dir, meta); err != nil {
		return false, err
	}
	if d.cfg.Subtitles.FetchCover {
		d.fetchCoverBestEffort(acquireCtx, logger, item.URL, dir)
	}

	workspace := archive.Workspace(dir)
	result, err := d.acquirer.Download(acquireCtx, item.URL, item.Platform, workspace)
	if rmErr := os.RemoveAll(workspace); rmErr != nil {
		logger.Debug("workspace cleanup failed", logging.Error(rmErr))
	}
	if err != nil {
		return false, err
	}

	meta.TranscriptMethod = string(result.Method)
	meta.TranscriptLanguage = result.Language
	meta.WordCount = result.WordCount
	item.TranscriptMethod = string(result.Method)
	if err := archive.WriteTranscript(dir, meta, result.Text); err != nil {
		return true, err
	}
	if err := archive.WriteMetadata(dir, meta); err != nil {
		return true, err
	}

	if d.rewriter == nil || !d.rewriter.Enabled() {
		return true, nil
	}
	if err := d.transition(ctx, item, queue.StatusRewriting); err != nil {
		return true, err
	}
	article, err := d.rewriter.Rewrite(services.WithStage(ctx, stageRewrite), rewrite.Request{
		Title:      meta.Title,
		Channel:    firstNonEmpty(meta.Channel, meta.Source),
		URL:        meta.URL,
		Transcript: result.Text,
	})
	if err != nil {
		return true, err
	}
	if err := archive.WriteRewritten(dir, article); err != nil {
		return true, err
	}

	if d.publisher == nil {
		return true, nil
	}
	if err := d.transition(ctx, item, queue.StatusPublishing); err != nil {
		return true, err
	}
	recordID, err := d.publisher.Publish(services.WithStage(ctx, stagePublish), dir)
	if err != nil {
		return true, err
	}
	item.RecordID = recordID
	return true, nil
}

func (d *Driver) transition(ctx context.Context, item *queue.Item, status queue.Status) error {
	item.Status = status
	item.ErrorMessage = ""
	if err := d.queue.Update(ctx, item); err != nil {
		return fmt.Errorf("persist %s transition: %w", status, err)
	}
	return nil
}

func (d *Driver) fetchCoverBestEffort(ctx context.Context, logger *slog.Logger, url, dir string) {
	if d.fetchCover == nil {
		return
	}
	if path, err := d.fetchCover(ctx, url, dir); err != nil {
		logging.WarnWithContext(logger, "cover download failed", "cover_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item is archived without a cover"),
		)
	} else {
		logger.Debug("cover saved", logging.String("path", path))
	}
}

// recordLedger writes the single ledger entry for an item; success means a
// transcript was acquired.
func (d *Driver) recordLedger(logger *slog.Logger, item *queue.Item, acquired bool) {
	entry := ledger.Entry{
		Title:           item.Title,
		SourceName:      item.SourceName,
		PublishedAt:     item.PublishedAt,
		DurationDisplay: item.DurationDisplay,
		URL:             item.URL,
		Success:         acquired,
		ProcessedAt:     d.now().UTC().Format(time.RFC3339),
	}
	if err := d.ledger.Record(ledger.Platform(item.Platform), item.ContentID, entry); err != nil {
		logger.Error("ledger record failed",
			logging.String(logging.FieldEventType, "ledger_record_failed"),
			logging.Error(err),
		)
	}
}

func (d *Driver) handleItemFailure(ctx context.Context, logger *slog.Logger, item *queue.Item, err error) {
	stage := stageForStatus(item.Status)
	item.SetFailed(err.Error())
	logging.WarnWithContext(logger, "item failed", "item_failed",
		logging.String(logging.FieldStage, stage),
		logging.String("error_class", services.ErrorClass(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "curator queue retry moves failed items back to pending"),
	)
	if updErr := d.queue.Update(ctx, item); updErr != nil {
		logger.Error("failed to persist item failure", logging.Error(updErr))
	}
	label := fmt.Sprintf("%s (%s/%s)", strings.TrimSpace(item.Title), item.Platform, item.ContentID)
	d.notify(ctx, "item failed", d.notifier.NotifyError(ctx, err, label))
}

func stageForStatus(status queue.Status) string {
	switch status {
	case queue.StatusRewriting:
		return stageRewrite
	case queue.StatusPublishing:
		return stagePublish
	default:
		return stageAcquire
	}
}

func (d *Driver) outcome(item *queue.Item, started time.Time, err error) ItemOutcome {
	return ItemOutcome{
		ItemID:           item.ID,
		Platform:         item.Platform,
		ContentID:        item.ContentID,
		Title:            item.Title,
		URL:              item.URL,
		Status:           item.Status,
		TranscriptMethod: item.TranscriptMethod,
		ItemDir:          item.ItemDir,
		RecordID:         item.RecordID,
		Err:              err,
		Duration:         d.now().Sub(started),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
