// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the curation
// driver from its collaborators, and exposes scanning, interactive selection,
// queue processing, single-URL transcription, ledger and queue maintenance,
// publishing, and environment diagnostics.
//
// Keep this package thin: behaviour lives in internal packages and commands
// only translate flags and render results.
package main
