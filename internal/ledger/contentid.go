package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnrecognizedURL reports a URL that matches no platform pattern.
var ErrUnrecognizedURL = errors.New("unrecognized content url")

var (
	youtubePattern    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|shorts/|live/|embed/|v/)|youtu\.be/)([A-Za-z0-9_-]{6,})`)
	bilibiliPattern   = regexp.MustCompile(`bilibili\.com/video/(BV[0-9A-Za-z]{10}|av[0-9]+)`)
	xiaoyuzhouPattern = regexp.MustCompile(`xiaoyuzhou(?:fm\.com|\.co)/episode/([0-9A-Za-z]+)`)
)

// ExtractContentID parses a content URL into its platform and id.
func ExtractContentID(rawURL string) (Platform, string, error) {
	url := strings.TrimSpace(rawURL)
	if m := youtubePattern.FindStringSubmatch(url); m != nil {
		return PlatformYouTube, m[1], nil
	}
	if m := bilibiliPattern.FindStringSubmatch(url); m != nil {
		return PlatformBilibili, m[1], nil
	}
	if m := xiaoyuzhouPattern.FindStringSubmatch(url); m != nil {
		return PlatformXiaoyuzhou, m[1], nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnrecognizedURL, rawURL)
}

// ContentURL returns the canonical URL for a platform content id.
func ContentURL(platform Platform, id string) string {
	switch platform {
	case PlatformYouTube:
		return "https://www.youtube.com/watch?v=" + id
	case PlatformBilibili:
		return "https://www.bilibili.com/video/" + id
	case PlatformXiaoyuzhou:
		return "https://www.xiaoyuzhoufm.com/episode/" + id
	default:
		return ""
	}
}
