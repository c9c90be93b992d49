package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/xhd2015/clau/types"
)

// waitDelay bounds how long Wait keeps reading output after the child exits,
// a grandchild holding the pipes must not block Wait forever
const waitDelay = 2 * time.Second

// Command describes one invocation of the binary
type Command struct {
	Path string
	Args []string
	Dir  string

	// Env is appended to the current environment
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Executor abstracts locating and spawning processes
type Executor interface {
	LookPath(name string) (string, error)
	Start(ctx context.Context, cmd Command, stdout io.Writer, stderr io.Writer) (Process, error)
}

// Process is a started child
type Process interface {
	// Wait blocks until the process exits and its output is copied.
	// A non-zero exit status is reported through exitCode, not err.
	Wait() (exitCode int, err error)
	Kill() error
}

// ExecExecutor runs real processes with os/exec
type ExecExecutor struct{}

var _ Executor = ExecExecutor{}

func (ExecExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (ExecExecutor) Start(ctx context.Context, cmd Command, stdout io.Writer, stderr io.Writer) (Process, error) {
	execCmd := exec.Command(cmd.Path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr
	execCmd.WaitDelay = waitDelay
	if err := execCmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: execCmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(err, exec.ErrWaitDelay) && p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), nil
	}
	return -1, err
}

func (p *execProcess) Kill() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// CapturedOutput is what a finished child produced
type CapturedOutput struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs the binary with a timeout and classifies failures:
//   - binary cannot be located: *types.BinaryNotFoundError
//   - spawn or wait failure: *types.IOError
//   - timeout: *types.TimeoutError, after the child is killed and reaped
//   - non-zero exit: *types.ProcessError carrying stderr
//
// No retries are done.
type Runner struct {
	executor Executor
	logger   types.Logger
}

// NewRunner creates a Runner, nil executor means ExecExecutor
func NewRunner(executor Executor, logger types.Logger) *Runner {
	if executor == nil {
		executor = ExecExecutor{}
	}
	if logger == nil {
		logger = types.NopLogger
	}
	return &Runner{
		executor: executor,
		logger:   logger,
	}
}

// Execute runs cmd to completion and returns its stdout verbatim.
// A timeout <= 0 means no timeout.
func (r *Runner) Execute(ctx context.Context, cmd Command, timeout time.Duration) (*CapturedOutput, error) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode, err := r.run(ctx, cmd, timeout, &stdout, &stderr)
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return nil, &types.ProcessError{ExitCode: exitCode, Stderr: stderr.String()}
	}
	return &CapturedOutput{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

// Stream runs cmd and forwards its stdout to the given writer as it
// is produced. Stderr lines are logged and kept for the error.
func (r *Runner) Stream(ctx context.Context, cmd Command, timeout time.Duration, stdout io.Writer) error {
	var stderr bytes.Buffer
	stderrWriter, cleanup := LinesWriter(func(line string) bool {
		r.logger.Log(ctx, types.LogType_Info, "stderr: %s", line)
		return true
	}, WithEndCallback(func(err error) {
		if err != nil {
			r.logger.Log(ctx, types.LogType_Error, "error streaming stderr: %v", err)
		}
	}))

	exitCode, err := r.run(ctx, cmd, timeout, stdout, io.MultiWriter(&stderr, stderrWriter))
	cleanup()
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return &types.ProcessError{ExitCode: exitCode, Stderr: stderr.String()}
	}
	return nil
}

type waitResult struct {
	exitCode int
	err      error
}

func (r *Runner) run(ctx context.Context, cmd Command, timeout time.Duration, stdout io.Writer, stderr io.Writer) (int, error) {
	path, err := r.executor.LookPath(cmd.Path)
	if err != nil {
		return 0, &types.BinaryNotFoundError{Name: cmd.Path, Err: err}
	}
	cmd.Path = path

	r.logger.Log(ctx, types.LogType_Info, "spawn command: %s", cmd.String())
	proc, err := r.executor.Start(ctx, cmd, stdout, stderr)
	if err != nil {
		return 0, &types.IOError{Op: "spawn", Err: err}
	}

	waitCh := make(chan waitResult, 1)
	go func() {
		exitCode, err := proc.Wait()
		waitCh <- waitResult{exitCode: exitCode, err: err}
	}()

	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case res := <-waitCh:
		if res.err != nil {
			return 0, &types.IOError{Op: "wait", Err: res.err}
		}
		return res.exitCode, nil
	case <-timerC:
		r.kill(ctx, proc, waitCh)
		return 0, &types.TimeoutError{Timeout: timeout}
	case <-ctx.Done():
		r.kill(ctx, proc, waitCh)
		return 0, ctx.Err()
	}
}

// kill terminates the child and waits until it is reaped
func (r *Runner) kill(ctx context.Context, proc Process, waitCh <-chan waitResult) {
	if err := proc.Kill(); err != nil {
		r.logger.Log(ctx, types.LogType_Error, "kill process: %v", err)
	}
	<-waitCh
}
