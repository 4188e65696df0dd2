// Package textutil provides small text helpers for filename sanitization and
// rune-safe truncation.
package textutil
