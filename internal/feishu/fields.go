package feishu

import (
	"regexp"
	"strings"

	"curator/internal/archive"
	"curator/internal/mediafmt"
	"curator/internal/textutil"
)

// Bitable column names.
const (
	FieldTitle     = "标题"
	FieldPlatform  = "平台来源"
	FieldLink      = "原内容链接"
	FieldCover     = "封面图"
	FieldTags      = "标签"
	FieldGuests    = "嘉宾"
	FieldPublished = "发布时间"
	FieldBody      = "摘要正文"
	fieldQuote     = "金句"
)

const (
	// QuoteCount is the number of quote columns.
	QuoteCount    = 5
	maxQuoteRunes = 200
	maxBodyRunes  = 5000
	quoteScan     = 600
)

var (
	h1Pattern          = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
	h2Pattern          = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)
	quotedListPattern  = regexp.MustCompile(`\d+\.\s*[“"「](.+?)[”"」]`)
	quoteLinePattern   = regexp.MustCompile(`^\s*\d+\.\s*[“"「]?(.+?)[”"」]?\s*$`)
	numberedPattern    = regexp.MustCompile(`(?m)^\s*\d+\.\s*(.+?)\s*$`)
	guestSection       = regexp.MustCompile(`(?s)##\s*嘉宾信息[^\n]*\n(.*?)(?:\n##\s|\n---|\z)`)
	guestLinePattern   = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*(.+?)\*\*\s*(?:[-–—:：]\s*(.+?))?\s*$`)
	guestInline        = regexp.MustCompile(`(?m)^\s*嘉宾[：:]\s*(.+?)\s*$`)
)

// BuildFields maps an archived item and its rewritten article to Bitable columns.
// coverToken may be empty when no cover was uploaded.
func BuildFields(meta archive.Metadata, rewritten, coverToken, coverName string) map[string]any {
	title := ExtractTitle(rewritten, meta.Title)
	fields := map[string]any{
		FieldTitle:    title,
		FieldPlatform: strings.ToUpper(meta.Platform),
		FieldLink: map[string]string{
			"link": meta.URL,
			"text": meta.Title,
		},
		FieldGuests: ExtractGuests(rewritten, fallbackGuest(meta)),
		FieldBody:   ExtractBody(rewritten),
	}
	if coverToken != "" {
		name := coverName
		if name == "" {
			name = "cover.jpg"
		}
		fields[FieldCover] = []map[string]string{{"file_token": coverToken, "name": name}}
	}
	if len(meta.Tags) > 0 {
		fields[FieldTags] = append([]string(nil), meta.Tags...)
	}
	if ms, err := mediafmt.DateToMillis(meta.PublishedAt); err == nil {
		fields[FieldPublished] = ms
	}
	for i, quote := range ExtractQuotes(rewritten) {
		fields[QuoteField(i+1)] = quote
	}
	return fields
}

// QuoteField returns the column name for the n-th quote (1-based).
func QuoteField(n int) string {
	return fieldQuote + string(rune('0'+n))
}

func fallbackGuest(meta archive.Metadata) string {
	if strings.TrimSpace(meta.Channel) != "" {
		return strings.TrimSpace(meta.Channel)
	}
	return strings.TrimSpace(meta.Source)
}

// ExtractTitle returns the first H1 of doc, then the first H2, then fallback.
func ExtractTitle(doc, fallback string) string {
	if m := h1Pattern.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := h2Pattern.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallback
}

// ExtractQuotes returns exactly QuoteCount quotes, padding with empty strings.
// Numbered lines under a 金句 heading win, then quoted numbered lines near
// the top, then any numbered lines near the top.
func ExtractQuotes(doc string) []string {
	quotes := quoteSection(doc)
	head := textutil.TruncateRunes(doc, quoteScan)
	if len(quotes) == 0 {
		for _, m := range quotedListPattern.FindAllStringSubmatch(head, -1) {
			quotes = append(quotes, m[1])
		}
	}
	if len(quotes) == 0 {
		for _, m := range numberedPattern.FindAllStringSubmatch(head, -1) {
			quotes = append(quotes, m[1])
		}
	}
	out := make([]string, QuoteCount)
	for i := 0; i < QuoteCount && i < len(quotes); i++ {
		out[i] = textutil.TruncateRunes(strings.TrimSpace(quotes[i]), maxQuoteRunes)
	}
	return out
}

// quoteSection collects numbered lines after a heading mentioning 金句 until
// the next H2 or horizontal rule.
func quoteSection(doc string) []string {
	var quotes []string
	inSection := false
	for line := range strings.SplitSeq(doc, "\n") {
		line = strings.TrimSpace(line)
		if !inSection {
			inSection = strings.HasPrefix(line, "#") && strings.Contains(line, "金句")
			continue
		}
		if strings.HasPrefix(line, "##") || strings.HasPrefix(line, "---") {
			break
		}
		if m := quoteLinePattern.FindStringSubmatch(line); m != nil {
			quotes = append(quotes, m[1])
		}
	}
	return quotes
}

// ExtractGuests reads "**Name** - role" lines (bulleted or bare) under 嘉宾信息 and renders
// them as "Name (role)". A "嘉宾: ..." line is used next, then fallback.
func ExtractGuests(doc, fallback string) string {
	if m := guestSection.FindStringSubmatch(doc); m != nil {
		var guests []string
		for _, line := range strings.Split(m[1], "\n") {
			lm := guestLinePattern.FindStringSubmatch(line)
			if lm == nil {
				continue
			}
			name := strings.TrimSpace(lm[1])
			role := strings.TrimRight(strings.TrimSpace(lm[2]), "。.")
			if role != "" {
				guests = append(guests, name+" ("+role+")")
			} else {
				guests = append(guests, name)
			}
		}
		if len(guests) > 0 {
			return strings.Join(guests, ", ")
		}
	}
	if m := guestInline.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	return fallback
}

// ExtractBody returns the document from its first H2 heading onward, or the
// text after a horizontal rule, capped at 5000 runes.
func ExtractBody(doc string) string {
	body := doc
	if idx := strings.Index(doc, "\n## "); idx >= 0 {
		body = doc[idx+1:]
	} else if strings.HasPrefix(doc, "## ") {
		body = doc
	} else if idx := strings.Index(doc, "\n---\n"); idx >= 0 {
		body = doc[idx+len("\n---\n"):]
	}
	return textutil.TruncateRunes(strings.TrimSpace(body), maxBodyRunes)
}
