package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"curator/internal/fileutil"
	"curator/internal/ledger"
	"curator/internal/services"
	"curator/internal/textutil"
)

const (
	MetadataFile   = "metadata.md"
	TranscriptFile = "transcript.md"
	RewrittenFile  = "rewritten.md"
	workspaceDir   = "subtitles"
	frontmatterSep = "---"
)

// CoverExtensions lists accepted cover image extensions in preference order.
var CoverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ErrNoMetadata reports a directory without a metadata.md file.
var ErrNoMetadata = errors.New("archive item has no metadata")

// Metadata is the frontmatter of metadata.md.
type Metadata struct {
	Title              string   `yaml:"title"`
	Platform           string   `yaml:"platform"`
	ContentID          string   `yaml:"content_id"`
	URL                string   `yaml:"url"`
	Source             string   `yaml:"source,omitempty"`
	Channel            string   `yaml:"channel,omitempty"`
	PublishedAt        string   `yaml:"published_at"`
	ProcessedAt        string   `yaml:"processed_at"`
	Duration           string   `yaml:"duration"`
	DurationSeconds    int      `yaml:"duration_seconds"`
	Views              int      `yaml:"views"`
	Tags               []string `yaml:"tags,omitempty"`
	TranscriptMethod   string   `yaml:"transcript_method,omitempty"`
	TranscriptLanguage string   `yaml:"transcript_language,omitempty"`
	WordCount          int      `yaml:"word_count,omitempty"`
	RecordID           string   `yaml:"record_id,omitempty"`
}

// Store roots the archive tree.
type Store struct {
	root string
}

// New returns a store rooted at root.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the archive directory.
func (s *Store) Root() string { return s.root }

// ItemDir returns the directory for one item. An empty source becomes "url".
func (s *Store) ItemDir(date string, platform ledger.Platform, source, id string) string {
	token := "url"
	if strings.TrimSpace(source) != "" {
		token = textutil.SanitizeToken(source)
	}
	name := fmt.Sprintf("%s_%s_%s", textutil.SanitizeToken(string(platform)), token, textutil.SanitizeFileName(id))
	return filepath.Join(s.root, date, name)
}

// Workspace returns the scratch directory used for subtitle downloads.
func Workspace(itemDir string) string {
	return filepath.Join(itemDir, workspaceDir)
}

// WriteMetadata writes metadata.md with YAML frontmatter.
func WriteMetadata(dir string, meta Metadata) error {
	front, err := yaml.Marshal(meta)
	if err != nil {
		return services.Wrap(services.ErrValidation, "archive", "encode metadata", "", err)
	}
	var buf bytes.Buffer
	buf.WriteString(frontmatterSep + "\n")
	buf.Write(front)
	buf.WriteString(frontmatterSep + "\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", meta.Title)
	fmt.Fprintf(&buf, "- Platform: %s\n", meta.Platform)
	fmt.Fprintf(&buf, "- URL: %s\n", meta.URL)
	if meta.PublishedAt != "" {
		fmt.Fprintf(&buf, "- Published: %s\n", meta.PublishedAt)
	}
	if meta.Duration != "" {
		fmt.Fprintf(&buf, "- Duration: %s\n", meta.Duration)
	}
	return write(dir, MetadataFile, buf.Bytes())
}

// ReadMetadata parses the frontmatter of metadata.md.
func ReadMetadata(dir string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return meta, fmt.Errorf("%w: %s", ErrNoMetadata, dir)
		}
		return meta, services.Wrap(services.ErrTransient, "archive", "read metadata", dir, err)
	}
	front, ok := splitFrontmatter(string(data))
	if !ok {
		return meta, services.Wrap(services.ErrValidation, "archive", "read metadata", "missing frontmatter in "+dir, nil)
	}
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return meta, services.Wrap(services.ErrValidation, "archive", "decode metadata", dir, err)
	}
	return meta, nil
}

func splitFrontmatter(content string) (string, bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, frontmatterSep) {
		return "", false
	}
	rest := strings.TrimPrefix(content, frontmatterSep)
	rest = strings.TrimPrefix(rest, "\r")
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+frontmatterSep)
	if end < 0 {
		return "", false
	}
	return rest[:end+1], true
}

// WriteTranscript writes transcript.md with a short header.
func WriteTranscript(dir string, meta Metadata, text string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", meta.Title)
	fmt.Fprintf(&buf, "> Source: %s | Method: %s | Language: %s | Words: %d\n\n", meta.URL, meta.TranscriptMethod, meta.TranscriptLanguage, meta.WordCount)
	buf.WriteString(strings.TrimSpace(text))
	buf.WriteString("\n")
	return write(dir, TranscriptFile, buf.Bytes())
}

// ReadTranscript returns transcript.md.
func ReadTranscript(dir string) (string, error) {
	return read(dir, TranscriptFile)
}

// WriteRewritten writes rewritten.md.
func WriteRewritten(dir, content string) error {
	return write(dir, RewrittenFile, []byte(strings.TrimSpace(content)+"\n"))
}

// ReadRewritten returns rewritten.md, or empty string when it does not exist.
func ReadRewritten(dir string) (string, error) {
	content, err := read(dir, RewrittenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return content, err
}

// FindCover returns the cover image in dir, if any.
func FindCover(dir string) string {
	return fileutil.FindByStem(dir, "cover", CoverExtensions)
}

// List returns every item directory containing metadata.md, sorted.
func (s *Store) List() ([]string, error) {
	dates, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "archive", "list", s.root, err)
	}
	var items []string
	for _, date := range dates {
		if !date.IsDir() || !datePattern.MatchString(date.Name()) {
			continue
		}
		children, err := os.ReadDir(filepath.Join(s.root, date.Name()))
		if err != nil {
			continue
		}
		for _, child := range children {
			dir := filepath.Join(s.root, date.Name(), child.Name())
			if !child.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, MetadataFile)); err == nil {
				items = append(items, dir)
			}
		}
	}
	slices.Sort(items)
	return items, nil
}

func write(dir, name string, data []byte) error {
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, name), data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "archive", "write "+name, dir, err)
	}
	return nil
}

func read(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
