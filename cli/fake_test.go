package cli

import (
	"context"
	"io"
	"os/exec"
	"sync"
)

// fakeExecutor plays back canned output instead of running a binary
type fakeExecutor struct {
	notFound bool
	startErr error
	stdout   string
	stderr   string
	exitCode int

	// hang keeps the process running until killed
	hang bool

	mu       sync.Mutex
	commands []Command
	kills    int
}

var _ Executor = (*fakeExecutor)(nil)

func (f *fakeExecutor) LookPath(name string) (string, error) {
	if f.notFound {
		return "", exec.ErrNotFound
	}
	return "/usr/local/bin/" + name, nil
}

func (f *fakeExecutor) Start(ctx context.Context, cmd Command, stdout io.Writer, stderr io.Writer) (Process, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	p := &fakeProcess{
		executor: f,
		done:     make(chan struct{}),
		killed:   make(chan struct{}),
	}
	go p.run(stdout, stderr)
	return p, nil
}

func (f *fakeExecutor) killCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kills
}

func (f *fakeExecutor) lastCommand() Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		return Command{}
	}
	return f.commands[len(f.commands)-1]
}

type fakeProcess struct {
	executor *fakeExecutor
	done     chan struct{}
	killed   chan struct{}
	killOnce sync.Once
	exitCode int
}

func (p *fakeProcess) run(stdout io.Writer, stderr io.Writer) {
	defer close(p.done)
	io.WriteString(stdout, p.executor.stdout)
	io.WriteString(stderr, p.executor.stderr)
	if p.executor.hang {
		<-p.killed
		p.exitCode = -1
		return
	}
	p.exitCode = p.executor.exitCode
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	return p.exitCode, nil
}

func (p *fakeProcess) Kill() error {
	p.killOnce.Do(func() {
		p.executor.mu.Lock()
		p.executor.kills++
		p.executor.mu.Unlock()
		close(p.killed)
	})
	return nil
}
