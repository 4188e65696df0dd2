package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/services"
	"curator/internal/subtitles/transcriptapi"
	"curator/internal/testsupport"
	"curator/internal/ytdlp"
)

const sampleSRT = "1\n00:00:10,500 --> 00:00:13,000\nHello world\n"

// ladderRunner writes a subtitle file only for the scopes listed in hits,
// keyed as "<origin>:<selector>".
type ladderRunner struct {
	hits    map[string]bool
	calls   []string
	timeout map[string]bool
}

func (r *ladderRunner) Run(ctx context.Context, args ...string) (ytdlp.Result, error) {
	manual := slices.Contains(args, "--write-subs")
	auto := slices.Contains(args, "--write-auto-subs")
	origin := "manual"
	switch {
	case manual && auto:
		origin = "any"
	case auto:
		origin = "auto"
	}
	selector := args[slices.Index(args, "--sub-langs")+1]
	key := origin + ":" + selector
	r.calls = append(r.calls, key)

	output := args[slices.Index(args, "-o")+1]
	lang := strings.TrimSuffix(selector, ".*")
	target := strings.Replace(output, "%(ext)s", lang+".srt", 1)
	if r.timeout[key] {
		_ = os.WriteFile(target, []byte(sampleSRT), 0o644)
		<-ctx.Done()
		return ytdlp.Result{ExitCode: -1}, ctx.Err()
	}
	if r.hits[key] {
		if err := os.WriteFile(target, []byte(sampleSRT), 0o644); err != nil {
			return ytdlp.Result{}, err
		}
		return ytdlp.Result{}, nil
	}
	return ytdlp.Result{ExitCode: 1}, ytdlp.ErrExit
}

type fakePaid struct {
	configured bool
	errs       []error
	calls      int
}

func (f *fakePaid) Configured() bool { return f.configured }

func (f *fakePaid) Transcribe(context.Context, string) (transcriptapi.Transcript, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return transcriptapi.Transcript{}, err
		}
	}
	return transcriptapi.Transcript{Text: "[00:00:00] 付费转写", Language: "zh-Hans"}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func newPipeline(t *testing.T, runner ytdlp.Runner, opts ...Option) (*Pipeline, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	opts = append([]Option{WithSleeper(noSleep)}, opts...)
	return New(cfg, runner, nil, opts...), cfg
}

func TestDownloadStopsAtAutoPrimary(t *testing.T) {
	runner := &ladderRunner{hits: map[string]bool{"auto:zh.*": true, "any:en.*": true}}
	var observed []Attempt
	p, _ := newPipeline(t, runner, WithAttemptObserver(func(_ string, attempts []Attempt) { observed = attempts }))
	workspace := t.TempDir()

	res, err := p.Download(context.Background(), "https://youtu.be/x", "youtube", workspace)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	wantCalls := []string{"manual:zh.*", "manual:en.*", "auto:zh.*"}
	if !slices.Equal(runner.calls, wantCalls) {
		t.Fatalf("calls = %v, want %v", runner.calls, wantCalls)
	}
	if res.Method != MethodAuto || res.Strategy != "auto-zh" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Text != "[00:00:10] Hello world" || res.WordCount != 2 || res.Language != "zh" {
		t.Fatalf("unexpected transcript %+v", res)
	}
	if len(observed) != 3 || observed[2].Outcome != OutcomeSuccess || observed[0].Outcome != OutcomeNoArtifact {
		t.Fatalf("unexpected attempt log %+v", observed)
	}
}

func TestDownloadClearsStaleArtifacts(t *testing.T) {
	workspace := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(workspace, "subtitle.en.srt"), sampleSRT)
	runner := &ladderRunner{}
	p, _ := newPipeline(t, runner)

	_, err := p.Download(context.Background(), "https://youtu.be/x", "youtube", workspace)
	if !errors.Is(err, ErrAcquisitionExhausted) {
		t.Fatalf("stale file must not count as success, got %v", err)
	}
	if matches, _ := filepath.Glob(filepath.Join(workspace, "*.srt")); len(matches) != 0 {
		t.Fatalf("artifacts left behind: %v", matches)
	}
}

func TestDownloadYouTubeNeverUsesPaidFallback(t *testing.T) {
	paid := &fakePaid{configured: true}
	p, _ := newPipeline(t, &ladderRunner{}, WithPaidTranscriber(paid))

	_, err := p.Download(context.Background(), "https://youtu.be/x", "youtube", t.TempDir())
	if !errors.Is(err, ErrAcquisitionExhausted) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if paid.calls != 0 {
		t.Fatalf("paid fallback called %d times for youtube", paid.calls)
	}
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) || len(acqErr.Attempts) != 6 {
		t.Fatalf("expected 5 ladder attempts plus skipped paid, got %+v", acqErr)
	}
}

func TestPaidEligibleFollowsConfiguredPlatforms(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Subtitles.PaidFallbackPlatforms = []string{"youtube"}
	})
	p := New(cfg, &ladderRunner{}, nil)
	if !p.PaidEligible(" YouTube ") {
		t.Fatal("expected youtube eligible when configured")
	}
	if p.PaidEligible("bilibili") {
		t.Fatal("expected bilibili ineligible when not configured")
	}
}

func TestDownloadPaidFallbackForBilibili(t *testing.T) {
	paid := &fakePaid{configured: true}
	runner := &ladderRunner{}
	p, _ := newPipeline(t, runner, WithPaidTranscriber(paid))

	res, err := p.Download(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD", "bilibili", t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(runner.calls) != 5 {
		t.Fatalf("ladder not exhausted before paid call: %v", runner.calls)
	}
	if res.Method != MethodPaid || paid.calls != 1 || res.WordCount != 4 {
		t.Fatalf("unexpected paid result %+v (calls=%d)", res, paid.calls)
	}
}

func TestDownloadPaidRetriesTransportFailures(t *testing.T) {
	transport := &transcriptapi.TransportError{StatusCode: 503, Err: errors.New("busy")}
	paid := &fakePaid{configured: true, errs: []error{transport, transport, transport, transport}}
	var slept []time.Duration
	p, cfg := newPipeline(t, &ladderRunner{}, WithPaidTranscriber(paid), WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}))

	_, err := p.Download(context.Background(), "https://www.xiaoyuzhoufm.com/episode/abc", "xiaoyuzhou", t.TempDir())
	if !errors.Is(err, ErrAcquisitionExhausted) || !errors.Is(err, transcriptapi.ErrTransport) {
		t.Fatalf("expected exhausted transport failure, got %v", err)
	}
	if want := 1 + cfg.TranscriptAPI.MaxRetries; paid.calls != want {
		t.Fatalf("paid calls = %d, want %d", paid.calls, want)
	}
	if len(slept) != cfg.TranscriptAPI.MaxRetries {
		t.Fatalf("slept %d times", len(slept))
	}
}

func TestDownloadPaidRecoversAfterTransportFailure(t *testing.T) {
	transport := &transcriptapi.TransportError{Err: errors.New("reset")}
	paid := &fakePaid{configured: true, errs: []error{transport}}
	p, _ := newPipeline(t, &ladderRunner{}, WithPaidTranscriber(paid))

	res, err := p.Download(context.Background(), "u", "bilibili", t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if paid.calls != 2 || res.Method != MethodPaid {
		t.Fatalf("calls=%d result=%+v", paid.calls, res)
	}
}

func TestDownloadPaymentRequiredIsNotRetried(t *testing.T) {
	paid := &fakePaid{configured: true, errs: []error{transcriptapi.ErrPaymentRequired}}
	p, _ := newPipeline(t, &ladderRunner{}, WithPaidTranscriber(paid))

	_, err := p.Download(context.Background(), "u", "bilibili", t.TempDir())
	if !errors.Is(err, transcriptapi.ErrPaymentRequired) {
		t.Fatalf("expected payment required, got %v", err)
	}
	if paid.calls != 1 {
		t.Fatalf("payment failure retried: %d calls", paid.calls)
	}
}

func TestDownloadMissingCredentialsSkipsPaid(t *testing.T) {
	paid := &fakePaid{configured: false}
	p, _ := newPipeline(t, &ladderRunner{}, WithPaidTranscriber(paid))

	_, err := p.Download(context.Background(), "u", "bilibili", t.TempDir())
	if !errors.Is(err, ErrCredentialsMissing) || !errors.Is(err, ErrAcquisitionExhausted) {
		t.Fatalf("expected credentials skip, got %v", err)
	}
	if paid.calls != 0 {
		t.Fatalf("unconfigured backend called")
	}
}

func TestDownloadTimeoutDiscardsPartialFile(t *testing.T) {
	runner := &ladderRunner{
		timeout: map[string]bool{"manual:zh.*": true},
		hits:    map[string]bool{"manual:en.*": true},
	}
	cfg := testsupport.NewConfig(t)
	cfg.Subtitles.AttemptTimeoutSeconds = 1
	var observed []Attempt
	p := New(cfg, runner, nil, WithSleeper(noSleep), WithAttemptObserver(func(_ string, a []Attempt) { observed = a }))
	p.attemptTimeout = 20 * time.Millisecond

	res, err := p.Download(context.Background(), "u", "youtube", t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if observed[0].Outcome != OutcomeTimeout {
		t.Fatalf("first attempt outcome = %s", observed[0].Outcome)
	}
	if res.Strategy != "manual-en" {
		t.Fatalf("partial file after timeout was accepted: %+v", res)
	}
}

func TestDownloadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newPipeline(t, &ladderRunner{})
	if _, err := p.Download(ctx, "u", "youtube", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
