package language

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Word forms accepted in addition to BCP 47 tags.
var words = map[string]string{
	"english":  "en",
	"chinese":  "zh",
	"mandarin": "zh",
	"japanese": "ja",
	"korean":   "ko",
	"spanish":  "es",
	"french":   "fr",
	"german":   "de",
}

func parseBase(code string) (language.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return language.Base{}, false
	}
	if mapped, ok := words[code]; ok {
		code = mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Base{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return base, true
}

// ToISO2 converts a BCP 47 tag, ISO 639 code, or word form to its base
// language code (ISO 639-1 when one exists). Returns empty string for
// unrecognized input.
func ToISO2(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return ""
	}
	return base.String()
}

// ToISO3 converts a recognized language code to ISO 639-2/T (3-letter).
// Returns "und" for unrecognized input.
func ToISO3(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		if iso := ToISO2(trimmed); iso != "" {
			tag = language.Make(iso)
		} else {
			return strings.ToUpper(trimmed)
		}
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(trimmed)
	}
	return name
}

// Matches reports whether two language codes share the same base language,
// so "zh-Hans" matches "zh" and "en-US" matches "eng".
func Matches(a, b string) bool {
	baseA, okA := parseBase(a)
	baseB, okB := parseBase(b)
	return okA && okB && baseA == baseB
}

// SubtitleSelector returns the yt-dlp --sub-langs expression selecting every
// regional or script variant of the language (e.g. "zh.*" for zh-Hans, zh-CN).
func SubtitleSelector(code string) string {
	if iso := ToISO2(code); iso != "" {
		return iso + ".*"
	}
	return strings.TrimSpace(code)
}

// FromSubtitleFile extracts the language from a yt-dlp subtitle file name of
// the form <stem>.<lang>.<ext>. Returns empty string when no tag is present.
func FromSubtitleFile(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	idx := strings.LastIndex(stem, ".")
	if idx < 0 || idx == len(stem)-1 {
		return ""
	}
	candidate := stem[idx+1:]
	if _, err := language.Parse(candidate); err != nil {
		return ""
	}
	return candidate
}

// NormalizeList deduplicates and normalizes a list of language codes to their
// base language.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		code := ToISO2(lang)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
