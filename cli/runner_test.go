package cli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xhd2015/clau/types"
)

func TestRunnerExecute(t *testing.T) {
	tests := []struct {
		name    string
		exec    *fakeExecutor
		timeout time.Duration
		check   func(t *testing.T, out *CapturedOutput, err error)
	}{
		{
			name: "success returns stdout verbatim",
			exec: &fakeExecutor{stdout: "  4\n", stderr: "warning"},
			check: func(t *testing.T, out *CapturedOutput, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if string(out.Stdout) != "  4\n" {
					t.Errorf("Expected verbatim stdout, got %q", out.Stdout)
				}
			},
		},
		{
			name: "binary not found",
			exec: &fakeExecutor{notFound: true},
			check: func(t *testing.T, out *CapturedOutput, err error) {
				if !errors.Is(err, types.ErrBinaryNotFound) {
					t.Errorf("Expected ErrBinaryNotFound, got %v", err)
				}
				var notFound *types.BinaryNotFoundError
				if !errors.As(err, &notFound) || notFound.Name != "claude" {
					t.Errorf("Expected BinaryNotFoundError for claude, got %v", err)
				}
			},
		},
		{
			name: "spawn failure is io error",
			exec: &fakeExecutor{startErr: errors.New("permission denied")},
			check: func(t *testing.T, out *CapturedOutput, err error) {
				var ioErr *types.IOError
				if !errors.As(err, &ioErr) || ioErr.Op != "spawn" {
					t.Errorf("Expected spawn IOError, got %v", err)
				}
				if errors.Is(err, types.ErrBinaryNotFound) {
					t.Errorf("Spawn failure must not be reported as not found")
				}
			},
		},
		{
			name: "non-zero exit carries stderr",
			exec: &fakeExecutor{stdout: "partial answer", stderr: "boom", exitCode: 1},
			check: func(t *testing.T, out *CapturedOutput, err error) {
				var procErr *types.ProcessError
				if !errors.As(err, &procErr) {
					t.Fatalf("Expected ProcessError, got %v", err)
				}
				if procErr.ExitCode != 1 {
					t.Errorf("Expected exit code 1, got %d", procErr.ExitCode)
				}
				if !strings.Contains(err.Error(), "boom") {
					t.Errorf("Expected boom in error, got %v", err)
				}
				if strings.Contains(err.Error(), "partial answer") {
					t.Errorf("stdout must not leak into error: %v", err)
				}
				if out != nil {
					t.Errorf("Expected no output on failure")
				}
			},
		},
		{
			name:    "timeout reports configured seconds",
			exec:    &fakeExecutor{hang: true},
			timeout: 1 * time.Second,
			check: func(t *testing.T, out *CapturedOutput, err error) {
				var timeoutErr *types.TimeoutError
				if !errors.As(err, &timeoutErr) {
					t.Fatalf("Expected TimeoutError, got %v", err)
				}
				if timeoutErr.Seconds() != 1 {
					t.Errorf("Expected 1 second, got %d", timeoutErr.Seconds())
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(tt.exec, nil)
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}
			out, err := runner.Execute(context.Background(), Command{Path: "claude", Args: []string{"-p", "q"}}, timeout)
			tt.check(t, out, err)
		})
	}
}

func TestRunnerTimeoutKills(t *testing.T) {
	fake := &fakeExecutor{hang: true}
	runner := NewRunner(fake, nil)
	_, err := runner.Execute(context.Background(), Command{Path: "claude"}, 50*time.Millisecond)
	var timeoutErr *types.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if timeoutErr.Timeout != 50*time.Millisecond {
		t.Errorf("Expected configured timeout, got %s", timeoutErr.Timeout)
	}
	if fake.killCount() != 1 {
		t.Errorf("Expected child to be killed once, got %d", fake.killCount())
	}
}

func TestRunnerContextCancel(t *testing.T) {
	fake := &fakeExecutor{hang: true}
	runner := NewRunner(fake, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := runner.Execute(ctx, Command{Path: "claude"}, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if fake.killCount() != 1 {
		t.Errorf("Expected child to be killed, got %d", fake.killCount())
	}
}

func TestRunnerStream(t *testing.T) {
	var mu sync.Mutex
	var logs []string
	logger := types.LoggerFunc(func(ctx context.Context, logType types.LogType, format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, string(logType)+":"+format)
	})
	fake := &fakeExecutor{stdout: "line1\nline2\n", stderr: "note\n"}
	runner := NewRunner(fake, logger)
	var out bytes.Buffer
	if err := runner.Stream(context.Background(), Command{Path: "claude"}, time.Second, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "line1\nline2\n" {
		t.Errorf("Expected forwarded stdout, got %q", out.String())
	}
	if len(logs) == 0 || !strings.HasPrefix(logs[0], "info:spawn command") {
		t.Errorf("Expected spawn log first, got %v", logs)
	}
	if fake.lastCommand().Path != "/usr/local/bin/claude" {
		t.Errorf("Expected resolved path, got %q", fake.lastCommand().Path)
	}
}

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecExecutor(t *testing.T) {
	requireSh(t)
	runner := NewRunner(ExecExecutor{}, nil)
	ctx := context.Background()

	out, err := runner.Execute(ctx, Command{Path: "sh", Args: []string{"-c", "printf 'hello\\n'; echo ignored >&2"}}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Stdout) != "hello\n" {
		t.Errorf("Expected hello, got %q", out.Stdout)
	}

	_, err = runner.Execute(ctx, Command{Path: "sh", Args: []string{"-c", "echo partial; echo boom >&2; exit 1"}}, 5*time.Second)
	var procErr *types.ProcessError
	if !errors.As(err, &procErr) || procErr.ExitCode != 1 || !strings.Contains(procErr.Error(), "boom") {
		t.Errorf("Expected ProcessError with boom, got %v", err)
	}

	out, err = runner.Execute(ctx, Command{Path: "sh", Args: []string{"-c", "echo $FOO"}, Env: []string{"FOO=bar"}, Dir: t.TempDir()}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Stdout) != "bar\n" {
		t.Errorf("Expected env to be passed, got %q", out.Stdout)
	}

	_, err = runner.Execute(ctx, Command{Path: "definitely-not-a-real-binary-xyz"}, time.Second)
	if !errors.Is(err, types.ErrBinaryNotFound) {
		t.Errorf("Expected ErrBinaryNotFound, got %v", err)
	}
}
