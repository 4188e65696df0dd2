package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"curator/internal/fileutil"
	"curator/internal/services"
)

// VideoInfo is the subset of yt-dlp info JSON curator consumes.
type VideoInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	UploadDate string  `json:"upload_date"`
	ViewCount  int64   `json:"view_count"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	WebpageURL string  `json:"webpage_url"`
	Thumbnail  string  `json:"thumbnail"`
}

// Author returns the channel name, falling back to the uploader.
func (v VideoInfo) Author() string {
	if name := strings.TrimSpace(v.Channel); name != "" {
		return name
	}
	return strings.TrimSpace(v.Uploader)
}

// FetchMetadata retrieves single-item metadata for url.
func FetchMetadata(ctx context.Context, runner Runner, url string) (VideoInfo, error) {
	var info VideoInfo
	res, err := runner.Run(ctx, MetadataArgs(url)...)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &info); err != nil {
		return info, services.Wrap(services.ErrExternalTool, "ytdlp", "metadata", "decode info json", err)
	}
	if strings.TrimSpace(info.ID) == "" {
		return info, services.Wrap(services.ErrValidation, "ytdlp", "metadata", fmt.Sprintf("no id in metadata for %s", url), nil)
	}
	return info, nil
}

// CoverExtensions lists thumbnail file extensions in preference order.
var CoverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// FetchThumbnail downloads the item thumbnail into dir and returns its path.
// Conversion to JPEG needs ffmpeg; without it the original format is kept.
func FetchThumbnail(ctx context.Context, runner Runner, url, dir string) (string, error) {
	if _, err := runner.Run(ctx, ThumbnailArgs(url, dir)...); err != nil {
		if path := FindCover(dir); path != "" {
			return path, nil
		}
		return "", err
	}
	if path := FindCover(dir); path != "" {
		return path, nil
	}
	return "", services.Wrap(services.ErrNotFound, "ytdlp", "thumbnail", "no thumbnail written", nil)
}

// FindCover returns the cover.<ext> file in dir, preferring JPEG.
func FindCover(dir string) string {
	return fileutil.FindByStem(dir, "cover", CoverExtensions)
}
