package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/mattjoyce/themedeploy/internal/log"
)

const (
	// DefaultTimeout bounds a single deploy invocation.
	DefaultTimeout = 600 * time.Second

	// maxStderrBytes caps the amount of stderr kept for error reporting.
	maxStderrBytes = 64 * 1024

	// terminationGracePeriod is the time we wait after SIGTERM before sending SIGKILL.
	terminationGracePeriod = 5 * time.Second

	// outputDrainDelay bounds how long Wait keeps copying output after the process
	// exits, in case a backgrounded child still holds stdout or stderr open.
	outputDrainDelay = 500 * time.Millisecond
)

// ErrTimeout is returned when an invocation exceeds its timeout.
var ErrTimeout = errors.New("deploy invocation timed out")

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Runner executes a Command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ProcessRunner runs commands as child processes, streaming their output.
type ProcessRunner struct {
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
	// Grace is the SIGTERM to SIGKILL delay; terminationGracePeriod when zero.
	Grace  time.Duration
	logger *slog.Logger
}

// NewProcessRunner creates a ProcessRunner. A zero timeout selects DefaultTimeout.
func NewProcessRunner(timeout time.Duration, stdout, stderr io.Writer) *ProcessRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProcessRunner{
		Timeout: timeout,
		Stdout:  stdout,
		Stderr:  stderr,
		logger:  log.WithComponent("runner"),
	}
}

// Run starts cmd and waits for it. It returns nil on exit status 0, *ExitError on a
// non-zero exit, and ErrTimeout when the timeout fires first. A cancelled ctx
// terminates the process the same way a timeout does.
func (r *ProcessRunner) Run(ctx context.Context, cmd Command) error {
	logger := r.logger
	if logger == nil {
		logger = log.WithComponent("runner")
	}
	grace := r.Grace
	if grace <= 0 {
		grace = terminationGracePeriod
	}

	timeoutTimer := time.NewTimer(r.Timeout)
	defer timeoutTimer.Stop()

	// Prepare command (don't use CommandContext - we'll manage termination ourselves)
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stderrTail := &tailBuffer{limit: maxStderrBytes}
	c.Stdout = writerOrDiscard(r.Stdout)
	c.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), stderrTail)
	c.WaitDelay = outputDrainDelay

	logger.Debug("starting deploy process", "path", cmd.Path, "args", cmd.Args, "dir", cmd.Dir, "timeout", r.Timeout)
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- c.Wait()
	}()

	var cause error
	select {
	case err := <-waitErr:
		return exitResult(err, stderrTail.String())
	case <-timeoutTimer.C:
		logger.Warn("deploy process timed out, sending SIGTERM", "path", cmd.Path, "timeout", r.Timeout)
		cause = ErrTimeout
	case <-ctx.Done():
		logger.Warn("deploy cancelled, sending SIGTERM", "path", cmd.Path)
		cause = ctx.Err()
	}

	signalGroup(c, syscall.SIGTERM, logger)

	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()

	select {
	case <-waitErr:
		logger.Info("deploy process exited after SIGTERM")
	case <-graceTimer.C:
		logger.Warn("deploy process did not exit after SIGTERM, sending SIGKILL")
		signalGroup(c, syscall.SIGKILL, logger)
		<-waitErr // Wait for process to die
	}
	return cause
}

func exitResult(err error, stderr string) error {
	// Exit status 0 with a child still holding the pipes: the exit code decides.
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("wait for process: %w", err)
}

// signalGroup signals the whole process group so framework worker children stop too.
func signalGroup(c *exec.Cmd, sig syscall.Signal, logger *slog.Logger) {
	if c.Process == nil {
		return
	}
	if err := syscall.Kill(-c.Process.Pid, sig); err != nil {
		logger.Error("failed to signal process group", "signal", sig.String(), "error", err)
	}
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(p) >= b.limit {
		b.buf = append(b.buf[:0], p[len(p)-b.limit:]...)
		return len(p), nil
	}
	if over := len(b.buf) + len(p) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
