// Package subtitles acquires a flat, timestamped transcript for a content URL.
//
// Download walks an ordered ladder of free subtitle strategies (manual before
// automatic, primary language before secondary), running yt-dlp once per
// strategy and stopping at the first subtitle file that appears. Subtitle
// files are converted to one line per cue prefixed with a [HH:MM:SS] marker.
// When the ladder is exhausted and the platform is configured for it, the paid
// transcript API is tried with a bounded number of transport retries. Every
// attempt is recorded so callers can report why acquisition failed.
package subtitles
