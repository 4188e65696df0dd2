package ytdlp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"curator/internal/services"
)

type fakeExecutor struct {
	calls [][]string
	fn    func(ctx context.Context, args []string) (Result, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, binary string, args []string) (Result, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	return f.fn(ctx, args)
}

func TestRunSuccess(t *testing.T) {
	fake := &fakeExecutor{fn: func(context.Context, []string) (Result, error) {
		return Result{Stdout: "ok"}, nil
	}}
	client := New("", time.Second, WithExecutor(fake))
	res, err := client.Run(context.Background(), "--version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "ok" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if got := fake.calls[0][0]; got != "yt-dlp" {
		t.Fatalf("binary = %q, want yt-dlp default", got)
	}
}

func TestRunExitCarriesTruncatedStderr(t *testing.T) {
	stderr := strings.Repeat("x", 2000)
	fake := &fakeExecutor{fn: func(context.Context, []string) (Result, error) {
		return Result{Stderr: stderr, ExitCode: 1}, errors.New("exit status 1")
	}}
	client := New("yt-dlp", time.Second, WithExecutor(fake))
	res, err := client.Run(context.Background())
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if len(err.Error()) > MaxStderrBytes+200 {
		t.Fatalf("error message not truncated: %d bytes", len(err.Error()))
	}
}

func TestRunTimeout(t *testing.T) {
	fake := &fakeExecutor{fn: func(ctx context.Context, _ []string) (Result, error) {
		<-ctx.Done()
		return Result{ExitCode: -1}, errors.New("signal: killed")
	}}
	client := New("yt-dlp", 10*time.Millisecond, WithExecutor(fake))
	_, err := client.Run(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestRunParentCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeExecutor{fn: func(ctx context.Context, _ []string) (Result, error) {
		return Result{ExitCode: -1}, ctx.Err()
	}}
	client := New("yt-dlp", time.Minute, WithExecutor(fake))
	_, err := client.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancellation misreported as timeout")
	}
}

func TestRunBinaryMissing(t *testing.T) {
	client := New("curator-definitely-missing-binary", time.Second)
	_, err := client.Run(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTimeoutCopies(t *testing.T) {
	base := New("yt-dlp", time.Second)
	other := base.WithTimeout(time.Minute)
	if base.timeout != time.Second || other.timeout != time.Minute {
		t.Fatalf("timeouts = %s / %s", base.timeout, other.timeout)
	}
}

func TestTruncateStderrKeepsRuneBoundary(t *testing.T) {
	input := strings.Repeat("字", 400)
	got := TruncateStderr(input)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got[len(got)-10:])
	}
	body := strings.TrimSuffix(got, "...")
	if len(body) > MaxStderrBytes || len(body)%3 != 0 {
		t.Fatalf("truncated body length %d splits a rune", len(body))
	}
}
