package preflight

import (
	"context"

	"roomcheck/internal/config"
	"roomcheck/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// st may be nil when the caller has not opened the store.
func RunAll(ctx context.Context, cfg *config.Config, st *store.Store) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if st != nil {
		results = append(results, CheckStore(ctx, st))
	}

	results = append(results, CheckExportTimezone(cfg.Export.Timezone))

	// The oracle is optional; without a key refinement is simply disabled.
	if cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Refinement LLM", cfg))
	}

	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
