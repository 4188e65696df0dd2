package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"curator/internal/fileutil"
	"curator/internal/logging"
)

// Platform names a content platform.
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformBilibili   Platform = "bilibili"
	PlatformXiaoyuzhou Platform = "xiaoyuzhou"
)

// KnownPlatforms lists the platforms pre-populated in every ledger, in display order.
var KnownPlatforms = []Platform{PlatformYouTube, PlatformBilibili, PlatformXiaoyuzhou}

// ParsePlatform normalizes a platform name. The boolean reports whether it is a known platform.
func ParsePlatform(value string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	return p, slices.Contains(KnownPlatforms, p)
}

// Entry is the processing record stored for one (platform, content id) pair.
type Entry struct {
	Platform        Platform `json:"platform"`
	ContentID       string   `json:"content_id"`
	Title           string   `json:"title"`
	SourceName      string   `json:"source_name"`
	ProcessedAt     string   `json:"processed_at"`
	PublishedAt     string   `json:"published_at"`
	DurationDisplay string   `json:"duration_display"`
	URL             string   `json:"url"`
	Success         bool     `json:"success"`
}

// Ledger maps platform to content id to entry.
type Ledger map[Platform]map[string]Entry

// Stats summarizes the ledger contents. It is derived from the entries on every save.
type Stats struct {
	TotalProcessed int              `json:"total_processed"`
	TotalSucceeded int              `json:"total_succeeded"`
	TotalFailed    int              `json:"total_failed"`
	ByPlatform     map[Platform]int `json:"by_platform"`
}

type document struct {
	Processed   Ledger `json:"processed"`
	Stats       Stats  `json:"stats"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for last_updated and processed_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the in-memory ledger and its on-disk document.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	data        Ledger
	lastUpdated string
}

// Open creates a store for path and loads any existing document. Load
// problems are logged and leave the store empty.
func Open(path string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "ledger"),
		now:    time.Now,
		data:   emptyLedger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Load(); err != nil {
		logging.WarnWithContext(s.logger, "ledger load failed", "ledger_load_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "check file permissions on the state directory"),
			logging.String(logging.FieldImpact, "previously processed items may be offered again"))
	}
	return s
}

// Path returns the ledger file location.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory ledger with the persisted document. A missing,
// empty, or unparsable file produces an empty ledger; only I/O failures other
// than a missing file are returned.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = emptyLedger()
	s.lastUpdated = ""
	if s.path == "" {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read ledger: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		logging.WarnWithContext(s.logger, "ledger file is corrupt; starting empty", "ledger_corrupt",
			logging.Error(err),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "restore the ledger from backup or let the next save overwrite it"),
			logging.String(logging.FieldImpact, "previously processed items may be offered again"))
		return nil
	}

	for platform, entries := range doc.Processed {
		if strings.TrimSpace(string(platform)) == "" {
			continue
		}
		bucket := make(map[string]Entry, len(entries))
		for id, entry := range entries {
			if strings.TrimSpace(id) == "" {
				continue
			}
			bucket[id] = entry
		}
		s.data[platform] = bucket
	}
	s.lastUpdated = doc.LastUpdated

	s.logger.Debug("loaded ledger",
		logging.Int("entry_count", countEntries(s.data)),
		logging.String("path", s.path))
	return nil
}

// IsProcessed reports whether the content id has been recorded for the platform.
func (s *Store) IsProcessed(platform Platform, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[platform][id]
	return ok
}

// Record upserts the entry for (platform, id). The latest record wins.
// Platform and ContentID on the entry are forced to the key; an empty
// ProcessedAt is stamped with the current UTC time.
func (s *Store) Record(platform Platform, id string, entry Entry) error {
	id = strings.TrimSpace(id)
	if platform == "" || id == "" {
		return errors.New("ledger record requires platform and content id")
	}
	entry.Platform = platform
	entry.ContentID = id
	if entry.ProcessedAt == "" {
		entry.ProcessedAt = s.now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[platform]
	if !ok {
		bucket = make(map[string]Entry)
		s.data[platform] = bucket
	}
	bucket[id] = entry
	return nil
}

// Snapshot returns a deep copy of the ledger.
func (s *Store) Snapshot() Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLedger(s.data)
}

// LastUpdated returns the last_updated stamp read from or written to disk.
func (s *Store) LastUpdated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Entries returns the entries for a platform sorted newest first. An empty
// platform returns every entry.
func (s *Store) Entries(platform Platform) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for p, bucket := range s.data {
		if platform != "" && p != platform {
			continue
		}
		for _, entry := range bucket {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := strings.Compare(b.ProcessedAt, a.ProcessedAt); c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Platform), string(b.Platform)); c != 0 {
			return c
		}
		return strings.Compare(a.ContentID, b.ContentID)
	})
	return entries
}

// Stats computes summary counts from the current entries.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStats(s.data)
}

// Save writes the full ledger atomically. The write happens under an
// exclusive lock file so concurrent runs cannot interleave partial writes; on
// failure the previously persisted file is left unchanged.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock ledger: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	data, err := encode(s.data, stamp)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	s.lastUpdated = stamp

	s.logger.Debug("saved ledger",
		logging.Int("entry_count", countEntries(s.data)),
		logging.String("path", s.path))
	return nil
}

func encode(data Ledger, stamp string) ([]byte, error) {
	doc := document{
		Processed:   cloneLedger(data),
		Stats:       computeStats(data),
		LastUpdated: stamp,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ledger: %w", err)
	}
	return append(out, '\n'), nil
}

func emptyLedger() Ledger {
	l := make(Ledger, len(KnownPlatforms))
	for _, p := range KnownPlatforms {
		l[p] = make(map[string]Entry)
	}
	return l
}

func cloneLedger(src Ledger) Ledger {
	out := emptyLedger()
	for platform, bucket := range src {
		out[platform] = maps.Clone(bucket)
		if out[platform] == nil {
			out[platform] = make(map[string]Entry)
		}
	}
	return out
}

func computeStats(data Ledger) Stats {
	stats := Stats{ByPlatform: make(map[Platform]int, len(data))}
	for _, p := range KnownPlatforms {
		stats.ByPlatform[p] = 0
	}
	for platform, bucket := range data {
		stats.ByPlatform[platform] = len(bucket)
		for _, entry := range bucket {
			stats.TotalProcessed++
			if entry.Success {
				stats.TotalSucceeded++
			} else {
				stats.TotalFailed++
			}
		}
	}
	return stats
}

func countEntries(data Ledger) int {
	n := 0
	for _, bucket := range data {
		n += len(bucket)
	}
	return n
}
