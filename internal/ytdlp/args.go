package ytdlp

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ListFields are the per-item fields printed by ListArgs, in order.
var ListFields = []string{"id", "title", "duration", "upload_date", "view_count"}

// ListTemplate joins the listing fields with delimiter as a yt-dlp --print template.
func ListTemplate(delimiter string) string {
	parts := make([]string, len(ListFields))
	for i, field := range ListFields {
		parts[i] = "%(" + field + ")s"
	}
	return strings.Join(parts, delimiter)
}

// ListArgs builds a flat-playlist listing of the limit most recent items.
func ListArgs(url string, limit int, delimiter string) []string {
	if limit <= 0 {
		limit = 1
	}
	return []string{
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(limit),
		"--print", ListTemplate(delimiter),
		"--no-warnings",
		url,
	}
}

// SubtitleStem is the output file stem used for downloaded subtitles.
const SubtitleStem = "subtitle"

// SubtitleRequest scopes one subtitle extraction attempt.
type SubtitleRequest struct {
	URL       string
	Workspace string
	// Languages is a --sub-langs expression.
	Languages string
	Manual    bool
	Auto      bool
}

// SubtitleArgs builds a subtitle-only download for one language/origin scope.
func SubtitleArgs(req SubtitleRequest) []string {
	args := []string{
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--sub-format", "srt/vtt/best",
		"--sub-langs", req.Languages,
	}
	if req.Manual {
		args = append(args, "--write-subs")
	}
	if req.Auto {
		args = append(args, "--write-auto-subs")
	}
	args = append(args,
		"-o", filepath.Join(req.Workspace, SubtitleStem+".%(ext)s"),
		req.URL,
	)
	return args
}

// ThumbnailArgs downloads the item thumbnail as cover.<ext> into workspace.
func ThumbnailArgs(url, workspace string) []string {
	return []string{
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--write-thumbnail",
		"--convert-thumbnails", "jpg",
		"-o", filepath.Join(workspace, "cover.%(ext)s"),
		url,
	}
}

// MetadataArgs prints the single-item info JSON without downloading media.
func MetadataArgs(url string) []string {
	return []string{
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		url,
	}
}
