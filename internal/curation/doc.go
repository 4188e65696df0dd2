// Package curation drives a batch end to end: scan the configured sources,
// let a Selector choose candidates, enqueue them, and process each queued item
// in order.
//
// Processing one item writes its archive directory, fetches a cover, acquires a
// transcript through the subtitle ladder, optionally rewrites and publishes it,
// and records exactly one ledger entry whose success flag reflects transcript
// acquisition. The ledger is saved once per batch, from a deferred call, so an
// interrupted batch still persists the entries it recorded.
package curation
