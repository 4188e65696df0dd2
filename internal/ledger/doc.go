// Package ledger persists the set of already-processed content items.
//
// The ledger is a JSON document keyed by platform and content id. It decides
// whether a discovered item is new: anything recorded here is never offered
// by the scanner again. Loading never fails hard; a missing, empty, or
// corrupt file yields an empty ledger so a damaged state file cannot stop a
// batch. Saves are atomic (temp file plus rename) and serialized across
// processes with a lock file next to the ledger.
//
// ExtractContentID maps a content URL to its (platform, id) pair using fixed
// per-platform patterns.
package ledger
