package curation_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"curator/internal/archive"
	"curator/internal/config"
	"curator/internal/curation"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/preflight"
	"curator/internal/queue"
	"curator/internal/rewrite"
	"curator/internal/scanner"
	"curator/internal/subtitles"
	"curator/internal/testsupport"
	"curator/internal/ytdlp"
)

var fixedNow = time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)

type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]ledger.Entry
	records int
	saves   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]ledger.Entry)}
}

func (f *fakeLedger) Load() error { return nil }

func (f *fakeLedger) IsProcessed(platform ledger.Platform, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[string(platform)+"/"+id]
	return ok
}

func (f *fakeLedger) Record(platform ledger.Platform, id string, entry ledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records++
	f.entries[string(platform)+"/"+id] = entry
	return nil
}

func (f *fakeLedger) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return nil
}

func (f *fakeLedger) entry(platform ledger.Platform, id string) (ledger.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[string(platform)+"/"+id]
	return e, ok
}

type fakeScanner struct {
	items []scanner.CandidateItem
}

func (f fakeScanner) ScanAll(context.Context, []config.Source, int) []scanner.CandidateItem {
	return f.items
}

type fakeAcquirer struct {
	fail  map[string]error
	calls []string
	hook  func(url string)
}

func (f *fakeAcquirer) Download(ctx context.Context, url, _, workspace string) (subtitles.TranscriptResult, error) {
	f.calls = append(f.calls, url)
	if f.hook != nil {
		f.hook(url)
	}
	if err := ctx.Err(); err != nil {
		return subtitles.TranscriptResult{}, err
	}
	if err, ok := f.fail[url]; ok {
		return subtitles.TranscriptResult{}, err
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return subtitles.TranscriptResult{}, err
	}
	if err := os.WriteFile(filepath.Join(workspace, "sub.en.srt"), []byte("1"), 0o644); err != nil {
		return subtitles.TranscriptResult{}, err
	}
	return subtitles.TranscriptResult{
		Text:      "[00:00] hello world",
		Method:    subtitles.MethodManual,
		Language:  "en",
		WordCount: 2,
	}, nil
}

type fakeRewriter struct {
	err      error
	requests []rewrite.Request
}

func (f *fakeRewriter) Enabled() bool { return true }

func (f *fakeRewriter) Rewrite(_ context.Context, req rewrite.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "# " + req.Title + "\n\n## 摘要\n\nbody", nil
}

type fakePublisher struct {
	dirs []string
}

func (f *fakePublisher) Publish(_ context.Context, itemDir string) (string, error) {
	f.dirs = append(f.dirs, itemDir)
	return "rec123", nil
}

type harness struct {
	cfg      *config.Config
	ledger   *fakeLedger
	acquirer *fakeAcquirer
	store    *queue.Store
}

func newHarness(t *testing.T, candidates []scanner.CandidateItem, opts ...curation.Option) (*curation.Driver, *harness) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSource(config.Source{
		Name:     "Talks",
		Platform: "youtube",
		URL:      "https://www.youtube.com/@talks",
		Enabled:  true,
	}))
	cfg.Subtitles.FetchCover = false
	h := &harness{
		cfg:      cfg,
		ledger:   newFakeLedger(),
		acquirer: &fakeAcquirer{fail: map[string]error{}},
		store:    testsupport.MustOpenStore(t, cfg),
	}
	base := []curation.Option{
		curation.WithClock(func() time.Time { return fixedNow }),
		curation.WithPreflight(func(context.Context) []preflight.Result { return nil }),
	}
	driver := curation.New(cfg, curation.Components{
		Ledger:   h.ledger,
		Scanner:  fakeScanner{items: candidates},
		Acquirer: h.acquirer,
		Queue:    h.store,
		Archive:  archive.New(cfg.Paths.ArchiveDir),
	}, logging.NewNop(), append(base, opts...)...)
	return driver, h
}

func TestProcessPendingRecordsEachItemAndSavesLedgerOnce(t *testing.T) {
	driver, h := newHarness(t, nil)
	ok := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "okvideo01", "Works")
	bad := testsupport.MustEnqueue(t, h.store, ledger.PlatformBilibili, "BV1xx411c7mD", "Broken")
	h.acquirer.fail[bad.URL] = &subtitles.AcquisitionError{URL: bad.URL}

	summary, err := driver.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if summary.Processed != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if h.ledger.saves != 1 {
		t.Fatalf("ledger saved %d times, want 1", h.ledger.saves)
	}
	if h.ledger.records != 2 {
		t.Fatalf("ledger recorded %d entries, want 2", h.ledger.records)
	}
	if e, found := h.ledger.entry(ledger.PlatformYouTube, "okvideo01"); !found || !e.Success {
		t.Fatalf("expected successful ledger entry, got %+v (found=%v)", e, found)
	}
	if e, found := h.ledger.entry(ledger.PlatformBilibili, "BV1xx411c7mD"); !found || e.Success {
		t.Fatalf("expected failed ledger entry, got %+v (found=%v)", e, found)
	}

	done, err := h.store.GetByID(context.Background(), ok.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if done.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}
	if done.TranscriptMethod != string(subtitles.MethodManual) {
		t.Fatalf("transcript method = %q", done.TranscriptMethod)
	}
	transcript, err := archive.ReadTranscript(done.ItemDir)
	if err != nil {
		t.Fatalf("ReadTranscript: %v", err)
	}
	if transcript == "" {
		t.Fatal("expected transcript content")
	}
	meta, err := archive.ReadMetadata(done.ItemDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.TranscriptMethod != string(subtitles.MethodManual) || meta.WordCount != 2 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if _, err := os.Stat(archive.Workspace(done.ItemDir)); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, stat err = %v", err)
	}

	failed, err := h.store.GetByID(context.Background(), bad.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if failed.Status != queue.StatusFailed || failed.ErrorMessage == "" {
		t.Fatalf("expected failed item with message, got %s %q", failed.Status, failed.ErrorMessage)
	}
}

func TestRunProcessesSelectionInTypedOrder(t *testing.T) {
	candidates := []scanner.CandidateItem{
		{ID: "BV1xx411c7mD", Title: "B", URL: "https://www.bilibili.com/video/BV1xx411c7mD", Platform: ledger.PlatformBilibili},
		{ID: "ytvideo001", Title: "Y1", URL: "https://www.youtube.com/watch?v=ytvideo001", Platform: ledger.PlatformYouTube},
		{ID: "ytvideo002", Title: "Y2", URL: "https://www.youtube.com/watch?v=ytvideo002", Platform: ledger.PlatformYouTube},
	}
	driver, h := newHarness(t, candidates)

	var shown []scanner.CandidateItem
	summary, err := driver.Run(context.Background(), curation.RunOptions{
		Selector: func(_ context.Context, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
			shown = items
			return curation.ParseSelection("3,1", items)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(shown) != 3 || shown[0].Platform != ledger.PlatformYouTube || shown[2].Platform != ledger.PlatformBilibili {
		t.Fatalf("candidates not grouped by platform: %+v", shown)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	want := []string{candidates[0].URL, candidates[1].URL}
	if len(h.acquirer.calls) != len(want) {
		t.Fatalf("calls = %v", h.acquirer.calls)
	}
	for i := range want {
		if h.acquirer.calls[i] != want[i] {
			t.Fatalf("call %d = %s, want %s", i, h.acquirer.calls[i], want[i])
		}
	}
}

func TestRunQuitSelectionProcessesNothing(t *testing.T) {
	candidates := []scanner.CandidateItem{{ID: "ytvideo001", URL: "https://www.youtube.com/watch?v=ytvideo001", Platform: ledger.PlatformYouTube}}
	driver, h := newHarness(t, candidates)
	summary, err := driver.Run(context.Background(), curation.RunOptions{
		Selector: func(_ context.Context, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
			return curation.ParseSelection("q", items)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 0 || len(h.acquirer.calls) != 0 {
		t.Fatalf("expected nothing processed, summary=%+v calls=%v", summary, h.acquirer.calls)
	}
	if h.ledger.saves != 0 {
		t.Fatalf("ledger saved %d times for an empty run", h.ledger.saves)
	}
}

func TestInterruptFinishesInFlightItemAndStopsBeforeNext(t *testing.T) {
	driver, h := newHarness(t, nil)
	first := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "firstvid01", "First")
	second := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "secondvid1", "Second")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.acquirer.hook = func(string) { cancel() }

	summary, err := driver.ProcessPending(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Processed != 1 || summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(h.acquirer.calls) != 1 {
		t.Fatalf("calls = %v, want only the in-flight item", h.acquirer.calls)
	}
	if e, ok := h.ledger.entry(ledger.PlatformYouTube, "firstvid01"); !ok || !e.Success {
		t.Fatalf("expected in-flight item recorded, got %+v", e)
	}
	if h.ledger.records != 1 {
		t.Fatalf("ledger records = %d, want 1", h.ledger.records)
	}
	if h.ledger.saves != 1 {
		t.Fatalf("ledger saved %d times, want 1", h.ledger.saves)
	}
	want := map[int64]queue.Status{first.ID: queue.StatusCompleted, second.ID: queue.StatusPending}
	for id, status := range want {
		item, err := h.store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.Status != status {
			t.Fatalf("item %d status = %s, want %s", id, item.Status, status)
		}
	}
}

func TestCanceledErrorReturnsItemToPendingWithoutLedgerEntry(t *testing.T) {
	driver, h := newHarness(t, nil)
	item := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "firstvid01", "First")
	h.acquirer.fail[item.URL] = context.Canceled

	summary, err := driver.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if h.ledger.records != 0 {
		t.Fatal("canceled item recorded in ledger")
	}
	stored, err := h.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", stored.Status)
	}
}

func TestRewriteFailureFailsItemButLedgerRecordsTranscript(t *testing.T) {
	rw := &fakeRewriter{err: errors.New("model unavailable")}
	driver, h := newHarness(t, nil, curation.WithRewriter(rw))
	item := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "rwvideo001", "Rewrite me")

	summary, err := driver.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if e, ok := h.ledger.entry(ledger.PlatformYouTube, "rwvideo001"); !ok || !e.Success {
		t.Fatalf("expected success ledger entry after transcript, got %+v", e)
	}
	stored, err := h.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
}

func TestPublishStoresRecordID(t *testing.T) {
	rw := &fakeRewriter{}
	pub := &fakePublisher{}
	driver, h := newHarness(t, nil, curation.WithRewriter(rw), curation.WithPublisher(pub))
	item := testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "pubvideo01", "Publish me")

	if _, err := driver.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	stored, err := h.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCompleted || stored.RecordID != "rec123" {
		t.Fatalf("unexpected item: status=%s record=%q", stored.Status, stored.RecordID)
	}
	if len(pub.dirs) != 1 || pub.dirs[0] != stored.ItemDir {
		t.Fatalf("publisher dirs = %v", pub.dirs)
	}
	rewritten, err := archive.ReadRewritten(stored.ItemDir)
	if err != nil || rewritten == "" {
		t.Fatalf("ReadRewritten: %q %v", rewritten, err)
	}
	if len(rw.requests) != 1 || rw.requests[0].Transcript == "" {
		t.Fatalf("rewrite requests = %+v", rw.requests)
	}
}

func TestProcessURLOverwritesExistingLedgerEntry(t *testing.T) {
	fetch := func(context.Context, string) (ytdlp.VideoInfo, error) {
		return ytdlp.VideoInfo{
			ID:         "urlvideo01",
			Title:      "Fetched title",
			Duration:   755,
			UploadDate: "20240101",
			Channel:    "Host",
		}, nil
	}
	driver, h := newHarness(t, nil, curation.WithMetadataFetcher(fetch))
	_ = h.ledger.Record(ledger.PlatformYouTube, "urlvideo01", ledger.Entry{Title: "old", Success: false})

	summary, err := driver.ProcessURL(context.Background(), "https://youtu.be/urlvideo01")
	if err != nil {
		t.Fatalf("ProcessURL: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	e, ok := h.ledger.entry(ledger.PlatformYouTube, "urlvideo01")
	if !ok || !e.Success || e.Title != "Fetched title" || e.DurationDisplay != "12:35" || e.PublishedAt != "2024-01-01" {
		t.Fatalf("unexpected ledger entry: %+v", e)
	}
	meta, err := archive.ReadMetadata(summary.Outcomes[0].ItemDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.Channel != "Host" {
		t.Fatalf("channel = %q, want Host", meta.Channel)
	}
}

func TestProcessURLRejectsUnknownURL(t *testing.T) {
	driver, _ := newHarness(t, nil)
	if _, err := driver.ProcessURL(context.Background(), "https://example.com/video"); !errors.Is(err, ledger.ErrUnrecognizedURL) {
		t.Fatalf("expected ErrUnrecognizedURL, got %v", err)
	}
}

func TestPreflightFailureStopsBatch(t *testing.T) {
	driver, h := newHarness(t, nil, curation.WithPreflight(func(context.Context) []preflight.Result {
		return []preflight.Result{{Name: "Archive directory", Passed: false, Detail: "not writable"}}
	}))
	testsupport.MustEnqueue(t, h.store, ledger.PlatformYouTube, "pfvideo001", "Blocked")

	if _, err := driver.ProcessPending(context.Background()); err == nil {
		t.Fatal("expected preflight error")
	}
	if len(h.acquirer.calls) != 0 || h.ledger.saves != 0 {
		t.Fatalf("batch ran despite failed preflight: calls=%v saves=%d", h.acquirer.calls, h.ledger.saves)
	}
}
