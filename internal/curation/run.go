package curation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/mediafmt"
	"curator/internal/preflight"
	"curator/internal/queue"
	"curator/internal/scanner"
	"curator/internal/services"
	"curator/internal/ytdlp"
)

// staleWorkspaceAge bounds how long a subtitle workspace may outlive its run.
const staleWorkspaceAge = 6 * time.Hour

// RunOptions controls one interactive or unattended batch.
type RunOptions struct {
	// Limit caps the items listed per source; zero uses the configured limit.
	Limit int
	// Platform restricts scanning to one platform when set.
	Platform string
	Selector Selector
}

// Scan loads the ledger and lists unprocessed candidates across enabled sources.
func (d *Driver) Scan(ctx context.Context, limit int, platform string) ([]scanner.CandidateItem, error) {
	if err := d.loadLedger(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = d.cfg.Scan.Limit
	}
	sources := scanner.FilterSources(d.cfg.EnabledSources(), platform)
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "select sources", "no enabled sources match", nil)
	}
	candidates := d.scanner.ScanAll(ctx, sources, limit)
	d.logger.Info("scan finished",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.Int("sources", len(sources)),
		logging.Int("candidates", len(candidates)),
	)
	return GroupCandidates(candidates), nil
}

// Run scans, asks the selector which candidates to keep, enqueues them in
// selection order and processes the queue.
func (d *Driver) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	if opts.Selector == nil {
		return Summary{}, errors.New("run requires a selector")
	}
	candidates, err := d.Scan(ctx, opts.Limit, opts.Platform)
	if err != nil {
		return Summary{}, err
	}
	if len(candidates) == 0 {
		d.logger.Info("no new items found", logging.String(logging.FieldEventType, "scan_empty"))
		return Summary{}, nil
	}

	selected, err := opts.Selector(ctx, candidates)
	if err != nil {
		return Summary{}, err
	}
	if len(selected) == 0 {
		d.logger.Info("nothing selected", logging.String(logging.FieldEventType, "selection_empty"))
		return Summary{}, nil
	}
	if err := d.Enqueue(ctx, selected); err != nil {
		return Summary{}, err
	}
	return d.ProcessPending(ctx)
}

// Enqueue adds candidates to the queue in the given order.
func (d *Driver) Enqueue(ctx context.Context, items []scanner.CandidateItem) error {
	for _, c := range items {
		queued, err := d.queue.Enqueue(ctx, queue.NewItem{
			Platform:        string(c.Platform),
			ContentID:       c.ID,
			Title:           c.Title,
			URL:             c.URL,
			SourceName:      c.SourceName,
			Tags:            c.Tags,
			DurationSeconds: c.DurationSeconds,
			DurationDisplay: c.DurationDisplay,
			PublishedAt:     c.PublishedAt,
			Views:           c.Views,
		})
		if err != nil {
			return fmt.Errorf("enqueue %s/%s: %w", c.Platform, c.ID, err)
		}
		d.logger.Debug("item enqueued",
			logging.Int64(logging.FieldItemID, queued.ID),
			logging.String(logging.FieldPlatform, queued.Platform),
			logging.String(logging.FieldContentID, queued.ContentID),
		)
	}
	return nil
}

// ProcessPending works through every pending queue item in enqueue order.
// The ledger is saved once when the loop ends, including after cancellation.
func (d *Driver) ProcessPending(ctx context.Context) (summary Summary, err error) {
	start := d.now()
	if err := d.runPreflight(ctx); err != nil {
		return Summary{}, err
	}
	if err := d.loadLedger(); err != nil {
		return Summary{}, err
	}
	if reset, resetErr := d.queue.ResetStuckProcessing(ctx); resetErr != nil {
		return Summary{}, fmt.Errorf("reset stuck items: %w", resetErr)
	} else if reset > 0 {
		logging.WarnWithContext(d.logger, "reset interrupted items to pending", "queue_reset",
			logging.Int64("count", reset),
			logging.String(logging.FieldImpact, "items from an interrupted run are processed again"),
		)
	}

	d.archive.CleanWorkspaces(staleWorkspaceAge, d.now(), d.logger)

	pending, err := d.queue.List(ctx, queue.StatusPending)
	if err != nil {
		return Summary{}, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		d.logger.Info("queue empty", logging.String(logging.FieldEventType, "queue_empty"))
		return Summary{}, nil
	}

	d.notify(ctx, "batch started", d.notifier.NotifyBatchStarted(ctx, len(pending)))
	defer func() {
		if saveErr := d.ledger.Save(); saveErr != nil {
			d.logger.Error("ledger save failed",
				logging.String(logging.FieldEventType, "ledger_save_failed"),
				logging.Error(saveErr),
			)
			err = errors.Join(err, saveErr)
		}
	}()

	seen := make(map[int64]struct{}, len(pending))
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		item, nextErr := d.queue.NextPending(ctx)
		if nextErr != nil {
			err = fmt.Errorf("next pending: %w", nextErr)
			break
		}
		if item == nil {
			break
		}
		if _, dup := seen[item.ID]; dup {
			// An item handed back to pending in this run is left for the next one.
			break
		}
		seen[item.ID] = struct{}{}
		summary.add(d.processItem(ctx, item))
	}

	summary.Duration = d.now().Sub(start)
	d.logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	notifyCtx := context.WithoutCancel(ctx)
	d.notify(notifyCtx, "batch completed", d.notifier.NotifyBatchCompleted(notifyCtx, summary.Succeeded, summary.Failed, summary.Duration))
	return summary, err
}

// ProcessURL processes one explicit URL. An item already in the ledger is
// processed again and its entry overwritten.
func (d *Driver) ProcessURL(ctx context.Context, rawURL string) (Summary, error) {
	platform, id, err := ledger.ExtractContentID(rawURL)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, "curation", "parse url", "", err)
	}
	candidate := scanner.CandidateItem{
		ID:       id,
		URL:      strings.TrimSpace(rawURL),
		Platform: platform,
		Title:    id,
	}
	if d.fetchMetadata != nil {
		info, metaErr := d.fetchMetadata(ctx, candidate.URL)
		if metaErr != nil {
			logging.WarnWithContext(d.logger, "metadata lookup failed", "metadata_failed",
				logging.String(logging.FieldPlatform, string(platform)),
				logging.String(logging.FieldContentID, id),
				logging.Error(metaErr),
				logging.String(logging.FieldImpact, "item is archived with its content id as title"),
			)
		} else {
			applyVideoInfo(&candidate, info, d.now())
			d.channels[channelKey(string(platform), id)] = info.Author()
		}
	}
	if err := d.Enqueue(ctx, []scanner.CandidateItem{candidate}); err != nil {
		return Summary{}, err
	}
	return d.ProcessPending(ctx)
}

func (d *Driver) runPreflight(ctx context.Context) error {
	if d.preflight == nil {
		return nil
	}
	results := d.preflight(ctx)
	var errs []error
	for _, r := range results {
		if r.Passed {
			d.logger.Info("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_passed"),
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run curator doctor for details"),
		)
		errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", fmt.Sprintf("%d of %d checks failed", len(preflight.Failed(results)), len(results)), errors.Join(errs...))
}

func (d *Driver) notify(ctx context.Context, what string, err error) {
	if err != nil {
		logging.WithContext(ctx, d.logger).Debug("notification failed",
			logging.String("notification", what),
			logging.Error(err),
		)
	}
}

func applyVideoInfo(c *scanner.CandidateItem, info ytdlp.VideoInfo, now time.Time) {
	if title := strings.TrimSpace(info.Title); title != "" {
		c.Title = title
	}
	if info.Duration > 0 {
		c.DurationSeconds = int(info.Duration)
		c.DurationDisplay = mediafmt.FormatDuration(c.DurationSeconds)
	}
	c.PublishedAt = mediafmt.NormalizeUploadDate(info.UploadDate, now)
	c.Views = int(info.ViewCount)
	if u := strings.TrimSpace(info.WebpageURL); u != "" {
		c.URL = u
	}
}
