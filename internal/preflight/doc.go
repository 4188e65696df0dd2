// Package preflight provides readiness checks for external services
// and filesystem paths that curator depends on.
//
// These checks run in two contexts:
//   - The curation driver calls RunAll before a batch. A failed check aborts
//     the batch before any item is claimed from the queue.
//   - The CLI "curator doctor" command prints every check plus the binary
//     report from CheckSystemDeps.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
