// Package scanner lists recent items from configured creator sources and
// filters them down to candidates worth processing.
//
// Each platform is served by a PlatformScanner registered by platform name.
// The YouTube scanner invokes yt-dlp in flat-playlist mode and parses its
// delimited output; the other platforms currently report no items. Scan
// applies the minimum-duration filter and drops anything the dedup ledger has
// already recorded. A failing source yields no candidates and never aborts
// ScanAll.
package scanner
