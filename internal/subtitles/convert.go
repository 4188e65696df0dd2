package subtitles

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	inlineTagPattern = regexp.MustCompile(`<[^>]*>`)
	assTagPattern    = regexp.MustCompile(`\{\\[^}]*\}`)
	markerPattern    = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\]\s*`)
)

// ConvertToTranscript flattens SRT or WebVTT content into one line per
// caption line. The first text line of each cue carries the cue start as
// [HH:MM:SS]. Sequence numbers, blank lines, WebVTT header/NOTE/STYLE/REGION
// blocks, and inline markup are dropped, and a line identical to the line
// emitted just before it is skipped.
func ConvertToTranscript(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var (
		out       []string
		pending   string
		last      string
		skipBlock bool
		blockHead = true
	)
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			skipBlock = false
			blockHead = true
			continue
		}
		if skipBlock {
			continue
		}
		if blockHead && isMetadataBlockStart(line) {
			skipBlock = true
			continue
		}
		blockHead = false

		if strings.Contains(line, "-->") {
			start := strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
			if seconds, ok := parseTimestamp(start); ok {
				pending = FormatMarker(seconds)
			}
			continue
		}
		if isSequenceNumber(line) {
			continue
		}
		text := cleanCaption(line)
		if text == "" || text == last {
			continue
		}
		last = text
		if pending != "" {
			text = pending + " " + text
			pending = ""
		}
		out = append(out, text)
	}
	return strings.Join(out, "\n")
}

// FormatMarker renders a start offset as [HH:MM:SS].
func FormatMarker(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("[%02d:%02d:%02d]", seconds/3600, (seconds%3600)/60, seconds%60)
}

func isMetadataBlockStart(line string) bool {
	return strings.HasPrefix(line, "WEBVTT") ||
		line == "NOTE" || strings.HasPrefix(line, "NOTE ") ||
		line == "STYLE" || line == "REGION"
}

func isSequenceNumber(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cleanCaption(line string) string {
	line = inlineTagPattern.ReplaceAllString(line, "")
	line = assTagPattern.ReplaceAllString(line, "")
	line = html.UnescapeString(line)
	return strings.Join(strings.Fields(line), " ")
}

// parseTimestamp accepts HH:MM:SS,mmm, HH:MM:SS.mmm, and MM:SS.mmm and
// returns whole seconds.
func parseTimestamp(value string) (int, bool) {
	if idx := strings.IndexAny(value, " \t"); idx >= 0 {
		value = value[:idx]
	}
	if idx := strings.IndexAny(value, ",."); idx >= 0 {
		value = value[:idx]
	}
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// CountWords counts Han, Kana, and Hangul runes individually and every other
// run of letters or digits as one word. Timestamp markers are ignored.
func CountWords(transcript string) int {
	count := 0
	for _, line := range strings.Split(transcript, "\n") {
		line = markerPattern.ReplaceAllString(strings.TrimSpace(line), "")
		inWord := false
		for _, r := range line {
			switch {
			case isCJK(r):
				count++
				inWord = false
			case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' && inWord:
				if !inWord {
					count++
					inWord = true
				}
			default:
				inWord = false
			}
		}
	}
	return count
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
