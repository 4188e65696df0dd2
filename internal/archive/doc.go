// Package archive stores per-item artifacts on disk.
//
// Items live under <archive_dir>/<YYYY-MM-DD>/<platform>_<source>_<id>/ and
// hold metadata.md (YAML frontmatter plus a short body), transcript.md,
// rewritten.md, and an optional cover image. Every write goes through an
// atomic temp-file rename so readers never observe half-written files.
package archive
