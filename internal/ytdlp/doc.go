// Package ytdlp wraps the yt-dlp command line tool.
//
// The Client runs the binary with a per-call timeout, captures stdout and
// stderr, and classifies failures as ErrTimeout, ErrExit, or ErrNotFound.
// Argument builders produce the flat-playlist listing, subtitle extraction,
// thumbnail, and single-item metadata invocations used by the scanner and the
// subtitle pipeline. Tests substitute the Executor to avoid spawning processes.
package ytdlp
