package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"roomcheck/internal/config"
	"roomcheck/internal/services/llm"
	"roomcheck/internal/store"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, name string, cfg *config.Config) Result {
	if cfg == nil || strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.ConfigFrom(cfg))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckStore runs the database integrity probe.
func CheckStore(ctx context.Context, st *store.Store) Result {
	const name = "Record store"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	health := st.CheckHealth(checkCtx)
	if health.Error != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", health.Path, health.Error)}
	}
	if !health.IntegrityOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check failed)", health.Path)}
	}

	collections := make([]string, 0, len(health.Collections))
	for collection, count := range health.Collections {
		collections = append(collections, fmt.Sprintf("%s=%d", collection, count))
	}
	sort.Strings(collections)
	mode := "read/write"
	if health.ReadOnly {
		mode = "read-only"
	}
	detail := fmt.Sprintf("%s (schema v%d, %s)", health.Path, health.SchemaVersion, mode)
	if len(collections) > 0 {
		detail += " " + strings.Join(collections, " ")
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckExportTimezone verifies the export timezone resolves on this host.
func CheckExportTimezone(zone string) Result {
	const name = "Export timezone"

	if _, err := time.LoadLocation(zone); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", zone, err)}
	}
	return Result{Name: name, Passed: true, Detail: zone}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return "auth failed (invalid api key)"
		}
	}
	return err.Error()
}
