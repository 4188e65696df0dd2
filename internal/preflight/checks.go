package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"curator/internal/config"
	"curator/internal/deps"
	"curator/internal/feishu"
	"curator/internal/rewrite"
)

// CheckRewrite verifies that the rewrite LLM is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckRewrite(ctx context.Context, cfg config.Rewrite) Result {
	const name = "Rewrite LLM"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := rewrite.NewClient(cfg, rewrite.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeRemoteError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", client.Model())}
}

// CheckFeishu verifies the Feishu app credentials by requesting a tenant token.
func CheckFeishu(ctx context.Context, cfg config.Feishu) Result {
	const name = "Feishu Bitable"
	switch {
	case strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.AppSecret) == "":
		return Result{Name: name, Detail: "missing app credentials"}
	case strings.TrimSpace(cfg.BitableAppToken) == "" || strings.TrimSpace(cfg.TableID) == "":
		return Result{Name: name, Detail: "missing bitable app token or table id"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := feishu.NewClient(cfg).CheckAuth(checkCtx); err != nil {
		var apiErr *feishu.APIError
		if errors.As(err, &apiErr) {
			return Result{Name: name, Detail: fmt.Sprintf("auth failed (code %d: %s)", apiErr.Code, apiErr.Msg)}
		}
		return Result{Name: name, Detail: summarizeRemoteError("Feishu API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "credentials accepted"}
}

// CheckTranscriptAPI reports whether the paid transcript fallback can be used.
// It never calls the API: every call is billed.
func CheckTranscriptAPI(cfg *config.Config) Result {
	const name = "Transcript API"
	if len(cfg.Subtitles.PaidFallbackPlatforms) == 0 {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.TranscriptAPI.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing; paid fallback will be skipped"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured for " + strings.Join(cfg.Subtitles.PaidFallbackPlatforms, ", ")}
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

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckAll(ctx, cfg)
}

func summarizeRemoteError(service string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", service)
	}
	return err.Error()
}
