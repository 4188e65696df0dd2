// Package language normalizes subtitle language tags.
//
// Parsing and display names come from golang.org/x/text/language, so BCP 47
// tags written by yt-dlp ("zh-Hans", "en-US") compare equal to the short
// codes used in configuration.
package language
