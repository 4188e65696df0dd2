package preflight

import (
	"context"

	"curator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes all applicable preflight checks for the given config.
// Remote checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Rewrite.Enabled {
		results = append(results, CheckRewrite(ctx, cfg.Rewrite))
	}
	if cfg.Feishu.Enabled {
		results = append(results, CheckFeishu(ctx, cfg.Feishu))
	}
	return results
}
