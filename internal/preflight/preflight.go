package preflight

import (
	"context"

	"podium/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// Optional features are only checked when enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Clips directory", cfg.Paths.ClipsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckBackend(ctx, cfg.Backend.URL),
		CheckCaptureDevice(cfg.Recording.Device),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   statusDetail(status.Resolved, status.Detail),
			Optional: status.Optional,
		})
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckURL(ctx, "Ntfy topic", cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

func statusDetail(resolved, detail string) string {
	if detail != "" {
		return detail
	}
	return resolved
}
