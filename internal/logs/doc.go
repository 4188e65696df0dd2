// Package logs reads curator's log file for the `curator logs` command.
//
// Last returns the final N matching lines with bounded memory. Follow streams
// appended lines until its context ends, waking on fsnotify events for the
// file and polling as a fallback, and restarts from the top when the file is
// truncated or replaced.
package logs
