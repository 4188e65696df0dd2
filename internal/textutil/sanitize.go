package textutil

import (
	"strings"
	"unicode"
)

// unsafeInName maps characters that break paths on common filesystems.
var unsafeInName = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-",
	"?", "", "\"", "", "<", "", ">", "", "|", "",
)

// SanitizeFileName makes name safe to use as one path element. Separators
// become dashes, other reserved characters are dropped.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(unsafeInName.Replace(strings.TrimSpace(name)))
}

// SanitizeToken lowercases value and collapses every run of characters other
// than letters, digits, '-' and '_' into one underscore. Letters of any script
// survive so CJK source names stay readable. Blank results become "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}

// TruncateRunes cuts value to at most limit runes. limit <= 0 disables the cut.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	n := 0
	for i := range value {
		if n == limit {
			return value[:i]
		}
		n++
	}
	return value
}
