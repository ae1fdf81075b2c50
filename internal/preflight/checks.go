package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"podium/internal/coachapi"
	"podium/internal/config"
	"podium/internal/deps"
)

// CheckBackend verifies that the analysis backend answers. It uses a single
// attempt with a 5-second timeout.
func CheckBackend(ctx context.Context, baseURL string) Result {
	const name = "Analysis backend"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := coachapi.NewClient(coachapi.Config{BaseURL: base, Timeout: 5 * time.Second})
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(base, err)}
	}
	return Result{Name: name, Passed: true, Detail: base + " (reachable)"}
}

// CheckURL verifies that an HTTP endpoint responds without a server error.
func CheckURL(ctx context.Context, name, target string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, strings.TrimSpace(target), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err), Optional: true}
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(target, err), Optional: true}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable", Optional: true}
}

// CheckCaptureDevice verifies that the camera node exists and is readable
// and writable by the current user.
func CheckCaptureDevice(device string) Result {
	const name = "Camera"

	device = strings.TrimSpace(device)
	if device == "" {
		return Result{Name: name, Detail: "no device configured"}
	}
	info, err := os.Stat(device)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not connected)", device)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", device, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", device)}
	}
	if err := unix.Access(device, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v; is the user in the video group?)", device, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", device)}
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

// CheckSystemDeps evaluates the external binaries recording and probing use,
// plus the ffmpeg input devices the configured capture needs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries(deps.ClipRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	if len(statuses) > 0 && statuses[0].Available {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		statuses = append(statuses, deps.CheckCaptureFormats(checkCtx, statuses[0].Resolved, "v4l2", cfg.Recording.AudioFormat))
	}
	return statuses
}

func summarizeError(target string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s (timed out)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("%s (timed out)", target)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("%s (unreachable: %v)", target, opErr.Err)
	}
	return fmt.Sprintf("%s (%v)", target, err)
}
