package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/fileutil"
	"curator/internal/language"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/subtitles/transcriptapi"
	"curator/internal/ytdlp"
)

var (
	// ErrAcquisitionExhausted reports that no strategy produced a transcript.
	ErrAcquisitionExhausted = errors.New("transcript acquisition exhausted")
	// ErrCredentialsMissing records a paid fallback skipped for lack of an API key.
	ErrCredentialsMissing = errors.New("paid transcript credentials missing")
)

// subtitlePatterns match every artifact an attempt can leave in the workspace.
var subtitlePatterns = []string{"*.srt", "*.vtt"}

// TranscriptResult is a successfully acquired transcript.
type TranscriptResult struct {
	Text      string
	Method    Method
	Language  string
	WordCount int
	// Strategy names the ladder step or "paid-api".
	Strategy string
}

// PaidTranscriber is the paid fallback backend.
type PaidTranscriber interface {
	Configured() bool
	Transcribe(ctx context.Context, url string) (transcriptapi.Transcript, error)
}

// Outcome classifies one attempt.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeNoArtifact Outcome = "no_artifact"
	OutcomeEmpty      Outcome = "empty"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeError      Outcome = "error"
	OutcomeSkipped    Outcome = "skipped"
)

// Attempt records one step of an acquisition.
type Attempt struct {
	Strategy string
	Method   Method
	Language string
	Outcome  Outcome
	Err      error
	Elapsed  time.Duration
}

// AcquisitionError carries the attempt log of a failed acquisition.
type AcquisitionError struct {
	URL      string
	Attempts []Attempt
	// Cause is the terminal paid-path error, if any.
	Cause error
}

func (e *AcquisitionError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, fmt.Sprintf("%s=%s", a.Strategy, a.Outcome))
	}
	msg := fmt.Sprintf("%v for %s (%s)", ErrAcquisitionExhausted, e.URL, strings.Join(names, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AcquisitionError) Unwrap() []error {
	errs := []error{ErrAcquisitionExhausted, services.ErrNotFound}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithAttemptObserver receives the attempt log after every Download.
func WithAttemptObserver(fn func(url string, attempts []Attempt)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithSleeper replaces the delay used between paid retries.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithPaidTranscriber sets the paid fallback backend.
func WithPaidTranscriber(paid PaidTranscriber) Option {
	return func(p *Pipeline) { p.paid = paid }
}

// WithLadder overrides the free strategy list.
func WithLadder(ladder []Strategy) Option {
	return func(p *Pipeline) {
		if len(ladder) > 0 {
			p.ladder = slices.Clone(ladder)
		}
	}
}

// Pipeline acquires transcripts.
type Pipeline struct {
	runner         ytdlp.Runner
	paid           PaidTranscriber
	ladder         []Strategy
	paidEligible   func(platform string) bool
	attemptTimeout time.Duration
	paidRetries    int
	paidDelay      time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	observer       func(url string, attempts []Attempt)
	logger         *slog.Logger
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, runner ytdlp.Runner, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		runner:         runner,
		ladder:         Ladder(cfg.Subtitles.PrimaryLanguage, cfg.Subtitles.SecondaryLanguage),
		paidEligible:   cfg.PaidFallbackEligible,
		attemptTimeout: cfg.AttemptTimeout(),
		paidRetries:    cfg.TranscriptAPI.MaxRetries,
		paidDelay:      time.Duration(cfg.TranscriptAPI.RetryDelaySeconds) * time.Second,
		sleep:          sleepContext,
		logger:         logging.NewComponentLogger(logger, "subtitles"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PaidEligible reports whether platform may use the paid fallback.
func (p *Pipeline) PaidEligible(platform string) bool {
	return p.paidEligible(platform)
}

// Download acquires a transcript for url, using workspace for subtitle files.
func (p *Pipeline) Download(ctx context.Context, url, platform, workspace string) (TranscriptResult, error) {
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return TranscriptResult{}, services.Wrap(services.ErrConfiguration, "subtitles", "workspace", workspace, err)
	}
	logger := logging.WithContext(ctx, p.logger)
	var attempts []Attempt
	if p.observer != nil {
		defer func() { p.observer(url, attempts) }()
	}

	for _, strategy := range p.ladder {
		if err := ctx.Err(); err != nil {
			return TranscriptResult{}, err
		}
		result, attempt := p.tryStrategy(ctx, url, workspace, strategy)
		attempts = append(attempts, attempt)
		logger.Debug("subtitle strategy attempted",
			logging.String("strategy", attempt.Strategy),
			logging.String("outcome", string(attempt.Outcome)),
			logging.Duration("elapsed", attempt.Elapsed),
		)
		if attempt.Outcome == OutcomeSuccess {
			logger.Info("transcript acquired",
				logging.String("method", string(result.Method)),
				logging.String("strategy", result.Strategy),
				logging.String("language", result.Language),
				logging.Int("words", result.WordCount),
			)
			return result, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return TranscriptResult{}, err
	}
	p.clearArtifacts(workspace)

	if !p.PaidEligible(platform) {
		attempts = append(attempts, Attempt{Strategy: string(MethodPaid), Method: MethodPaid, Outcome: OutcomeSkipped})
		return TranscriptResult{}, &AcquisitionError{URL: url, Attempts: attempts}
	}

	result, paidAttempts, err := p.tryPaid(ctx, url)
	attempts = append(attempts, paidAttempts...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return TranscriptResult{}, err
		}
		if errors.Is(err, ErrCredentialsMissing) {
			logging.WarnWithContext(logger, "paid transcript fallback skipped", "paid_fallback_skipped",
				logging.String(logging.FieldErrorHint, "set transcript_api.api_key or CURATOR_TRANSCRIPT_API_KEY"),
				logging.String(logging.FieldImpact, "item has no transcript"),
			)
		}
		return TranscriptResult{}, &AcquisitionError{URL: url, Attempts: attempts, Cause: err}
	}
	logger.Info("transcript acquired",
		logging.String("method", string(result.Method)),
		logging.Int("words", result.WordCount),
	)
	return result, nil
}

func (p *Pipeline) tryStrategy(ctx context.Context, url, workspace string, strategy Strategy) (TranscriptResult, Attempt) {
	attempt := Attempt{Strategy: strategy.Name, Method: strategy.Method, Language: strategy.Language}
	p.clearArtifacts(workspace)

	attemptCtx := ctx
	cancel := func() {}
	if p.attemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, p.attemptTimeout)
	}
	defer cancel()

	started := time.Now()
	_, err := p.runner.Run(attemptCtx, ytdlp.SubtitleArgs(ytdlp.SubtitleRequest{
		URL:       url,
		Workspace: workspace,
		Languages: language.SubtitleSelector(strategy.Language),
		Manual:    strategy.wantsManual(),
		Auto:      strategy.wantsAuto(),
	})...)
	attempt.Elapsed = time.Since(started)

	if ctx.Err() == nil && (errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, ytdlp.ErrTimeout)) {
		// a partial file after a timeout is not trusted
		attempt.Outcome = OutcomeTimeout
		attempt.Err = err
		p.clearArtifacts(workspace)
		return TranscriptResult{}, attempt
	}
	if errors.Is(err, ytdlp.ErrNotFound) {
		attempt.Outcome = OutcomeError
		attempt.Err = err
		return TranscriptResult{}, attempt
	}

	path := findSubtitle(workspace)
	if path == "" {
		attempt.Outcome = OutcomeNoArtifact
		attempt.Err = err
		return TranscriptResult{}, attempt
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		attempt.Outcome = OutcomeError
		attempt.Err = readErr
		return TranscriptResult{}, attempt
	}
	text := ConvertToTranscript(string(data))
	if strings.TrimSpace(text) == "" {
		attempt.Outcome = OutcomeEmpty
		return TranscriptResult{}, attempt
	}
	lang := language.FromSubtitleFile(path)
	if lang == "" {
		lang = strategy.Language
	}
	attempt.Outcome = OutcomeSuccess
	return TranscriptResult{
		Text:      text,
		Method:    strategy.Method,
		Language:  lang,
		WordCount: CountWords(text),
		Strategy:  strategy.Name,
	}, attempt
}

// tryPaid calls the paid backend once plus up to paidRetries retries on
// transport failures.
func (p *Pipeline) tryPaid(ctx context.Context, url string) (TranscriptResult, []Attempt, error) {
	base := Attempt{Strategy: string(MethodPaid), Method: MethodPaid}
	if p.paid == nil || !p.paid.Configured() {
		base.Outcome = OutcomeSkipped
		base.Err = ErrCredentialsMissing
		return TranscriptResult{}, []Attempt{base}, ErrCredentialsMissing
	}

	var attempts []Attempt
	var lastErr error
	for call := 0; call <= p.paidRetries; call++ {
		if call > 0 {
			if err := p.sleep(ctx, p.paidDelay); err != nil {
				return TranscriptResult{}, attempts, err
			}
		}
		attempt := base
		started := time.Now()
		transcript, err := p.paid.Transcribe(ctx, url)
		attempt.Elapsed = time.Since(started)
		if err == nil {
			attempt.Outcome = OutcomeSuccess
			attempt.Language = transcript.Language
			attempts = append(attempts, attempt)
			return TranscriptResult{
				Text:      transcript.Text,
				Method:    MethodPaid,
				Language:  transcript.Language,
				WordCount: CountWords(transcript.Text),
				Strategy:  string(MethodPaid),
			}, attempts, nil
		}
		attempt.Outcome = OutcomeError
		attempt.Err = err
		attempts = append(attempts, attempt)
		lastErr = err
		if errors.Is(err, transcriptapi.ErrMissingAPIKey) {
			return TranscriptResult{}, attempts, fmt.Errorf("%w: %w", ErrCredentialsMissing, err)
		}
		if !errors.Is(err, transcriptapi.ErrTransport) {
			return TranscriptResult{}, attempts, err
		}
		p.logger.Debug("paid transcript transport failure",
			logging.Int("call", call+1),
			logging.Error(err),
		)
	}
	return TranscriptResult{}, attempts, lastErr
}

func (p *Pipeline) clearArtifacts(workspace string) {
	if _, err := fileutil.RemoveMatching(workspace, subtitlePatterns...); err != nil {
		p.logger.Debug("clear subtitle artifacts failed", logging.Error(err))
	}
}

// findSubtitle returns the preferred subtitle file in workspace: SRT over
// VTT, then lexical order.
func findSubtitle(workspace string) string {
	for _, pattern := range subtitlePatterns {
		matches, err := filepath.Glob(filepath.Join(workspace, pattern))
		if err != nil || len(matches) == 0 {
			continue
		}
		slices.Sort(matches)
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.Size() > 0 {
				return match
			}
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
