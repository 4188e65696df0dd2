package ledger

import (
	"errors"
	"testing"
)

func TestExtractContentID(t *testing.T) {
	cases := []struct {
		url      string
		platform Platform
		id       string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=10", PlatformYouTube, "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", PlatformYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abcDEF12345", PlatformYouTube, "abcDEF12345"},
		{"https://www.youtube.com/live/abcDEF12345", PlatformYouTube, "abcDEF12345"},
		{"https://www.youtube.com/embed/abcDEF12345", PlatformYouTube, "abcDEF12345"},
		{"https://www.bilibili.com/video/BV1xx411c7mD/?spm=1", PlatformBilibili, "BV1xx411c7mD"},
		{"https://www.bilibili.com/video/av170001", PlatformBilibili, "av170001"},
		{"https://www.xiaoyuzhoufm.com/episode/64a1b2c3d4e5f6a7b8c9d0e1", PlatformXiaoyuzhou, "64a1b2c3d4e5f6a7b8c9d0e1"},
	}
	for _, tc := range cases {
		platform, id, err := ExtractContentID(tc.url)
		if err != nil {
			t.Fatalf("ExtractContentID(%q) error: %v", tc.url, err)
		}
		if platform != tc.platform || id != tc.id {
			t.Fatalf("ExtractContentID(%q) = %s/%s, want %s/%s", tc.url, platform, id, tc.platform, tc.id)
		}
	}
}

func TestExtractContentIDUnrecognized(t *testing.T) {
	for _, url := range []string{"", "https://vimeo.com/123", "https://b23.tv/abc", "https://www.youtube.com/@channel"} {
		if _, _, err := ExtractContentID(url); !errors.Is(err, ErrUnrecognizedURL) {
			t.Fatalf("expected ErrUnrecognizedURL for %q, got %v", url, err)
		}
	}
}

func TestContentURLRoundTrips(t *testing.T) {
	for _, p := range KnownPlatforms {
		id := map[Platform]string{
			PlatformYouTube:    "dQw4w9WgXcQ",
			PlatformBilibili:   "BV1xx411c7mD",
			PlatformXiaoyuzhou: "64a1b2c3d4e5f6a7b8c9d0e1",
		}[p]
		gotPlatform, gotID, err := ExtractContentID(ContentURL(p, id))
		if err != nil || gotPlatform != p || gotID != id {
			t.Fatalf("round trip %s/%s -> %s/%s (%v)", p, id, gotPlatform, gotID, err)
		}
	}
}
