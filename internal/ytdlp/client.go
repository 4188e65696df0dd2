package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"curator/internal/services"
)

// MaxStderrBytes bounds the stderr excerpt carried in errors.
const MaxStderrBytes = 500

var (
	// ErrTimeout reports that an invocation exceeded its deadline.
	ErrTimeout = errors.New("yt-dlp timed out")
	// ErrExit reports a non-zero exit status.
	ErrExit = errors.New("yt-dlp exited non-zero")
	// ErrNotFound reports that the binary could not be located.
	ErrNotFound = errors.New("yt-dlp binary not found")
)

// Result captures the output of one invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes yt-dlp with the supplied arguments.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// Executor abstracts process execution for testability.
type Executor interface {
	Execute(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client runs yt-dlp under a per-call timeout.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a client. A zero timeout disables the per-call deadline.
func New(binary string, timeout time.Duration, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	c := &Client{binary: binary, timeout: timeout, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured executable name.
func (c *Client) Binary() string { return c.binary }

// WithTimeout returns a copy of the client using a different per-call timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *c
	clone.timeout = timeout
	return &clone
}

// Run executes yt-dlp. On a non-zero exit the captured Result is returned
// alongside the error so callers can inspect side effects such as written files.
func (c *Client) Run(ctx context.Context, args ...string) (Result, error) {
	runCtx := ctx
	cancel := func() {}
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	res, err := c.exec.Execute(runCtx, c.binary, args)
	if err == nil {
		return res, nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return res, services.Wrap(services.ErrExternalTool, "ytdlp", "run", fmt.Sprintf("%s not found in PATH", c.binary), ErrNotFound)
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return res, services.Wrap(services.ErrTimeout, "ytdlp", "run", fmt.Sprintf("exceeded %s", c.timeout), ErrTimeout)
	case res.ExitCode != 0:
		detail := fmt.Sprintf("exit status %d", res.ExitCode)
		if excerpt := TruncateStderr(res.Stderr); excerpt != "" {
			detail += ": " + excerpt
		}
		return res, services.Wrap(services.ErrExternalTool, "ytdlp", "run", detail, ErrExit)
	default:
		return res, services.Wrap(services.ErrExternalTool, "ytdlp", "run", "", err)
	}
}

// TruncateStderr trims stderr to MaxStderrBytes without splitting a UTF-8 sequence.
func TruncateStderr(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if len(trimmed) <= MaxStderrBytes {
		return trimmed
	}
	cut := MaxStderrBytes
	for cut > 0 && !isRuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

type commandExecutor struct{}

func (commandExecutor) Execute(ctx context.Context, binary string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode < 0 {
				// killed by signal (timeout)
				res.ExitCode = -1
			}
		} else {
			res.ExitCode = -1
		}
		return res, err
	}
	return res, nil
}
