// Package deps resolves the external binaries curator shells out to.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"curator/internal/config"
)

const versionProbeTimeout = 5 * time.Second

// Status is one row of the doctor binary report.
type Status struct {
	Name      string
	Command   string
	Optional  bool
	Available bool
	// Version is the first line the binary printed for its version flag.
	Version string
	Detail  string
}

// CheckAll resolves yt-dlp and the ffmpeg it converts covers with. ffmpeg is
// optional unless cover fetching is enabled.
func CheckAll(ctx context.Context, cfg *config.Config) []Status {
	ytdlp := Resolve(ctx, "yt-dlp", cfg.Scan.ToolBinary, "--version")
	ffmpeg := ResolveFFmpeg(ctx, ytdlp.Command)
	ffmpeg.Optional = !cfg.Subtitles.FetchCover
	return []Status{ytdlp, ffmpeg}
}

// Resolve looks command up on PATH and, when found, records its version.
// A blank command falls back to name.
func Resolve(ctx context.Context, name, command, versionFlag string) Status {
	command = strings.TrimSpace(command)
	if command == "" {
		command = name
	}
	st := Status{Name: name, Command: command}
	path, err := exec.LookPath(command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", command)
		return st
	}
	st.Command = path
	st.Available = true
	st.Version = probeVersion(ctx, path, versionFlag)
	return st
}

// ResolveFFmpeg finds the ffmpeg yt-dlp will use. Standalone yt-dlp builds
// prefer an executable sitting next to them before PATH.
func ResolveFFmpeg(ctx context.Context, ytdlpPath string) Status {
	if ytdlpPath != "" {
		if resolved, err := exec.LookPath(ytdlpPath); err == nil {
			sidecar := filepath.Join(filepath.Dir(resolved), executable("ffmpeg"))
			if isExecutableFile(sidecar) {
				return Status{
					Name:      "ffmpeg",
					Command:   sidecar,
					Available: true,
					Version:   probeVersion(ctx, sidecar, "-version"),
					Detail:    "sidecar of yt-dlp",
				}
			}
		}
	}
	return Resolve(ctx, "ffmpeg", "", "-version")
}

func probeVersion(ctx context.Context, path, flag string) string {
	if flag == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, flag).Output()
	if err != nil {
		return ""
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}

func executable(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
