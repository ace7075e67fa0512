// Package runner provides safe command execution with timeouts, output
// size limits and classified results.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default values used when the Runner fields are left zero.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MB

	// waitDelay bounds how long Wait blocks on pipes still held open by
	// descendants, after the deadline or after a clean exit.
	waitDelay = 2 * time.Second
)

// Runner executes one child process per call. It holds no state between
// calls and is safe for concurrent use.
type Runner struct {
	Dir       string        // working directory; empty inherits the host's
	Timeout   time.Duration // default deadline for invocations without one
	MaxOutput int           // per-stream cap in bytes
}

// Run executes inv and classifies the outcome. It never returns nil and
// never panics on process failures: every error path becomes a Result.
func (r *Runner) Run(ctx context.Context, inv Invocation) *Result {
	start := time.Now()
	res := &Result{
		RunID:   uuid.New().String(),
		Binary:  inv.Binary,
		Timeout: r.timeout(inv),
	}
	defer func() { res.Duration = time.Since(start) }()

	if strings.TrimSpace(inv.Binary) == "" {
		res.Outcome = Failed
		res.Message = "empty binary name"
		return res
	}

	path, err := exec.LookPath(inv.Binary)
	if err != nil {
		if isNotFound(err) {
			res.Outcome = NotFound
			return res
		}
		res.Outcome = Failed
		res.Message = err.Error()
		return res
	}

	runCtx, cancel := context.WithTimeout(ctx, res.Timeout)
	defer cancel()

	args := append([]string(nil), inv.Args...)
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}

	maxOutput := r.maxOutput()
	var stdout, stderr bytes.Buffer
	outw := &limitWriter{buf: &stdout, limit: maxOutput}
	errw := &limitWriter{buf: &stderr, limit: maxOutput}
	cmd.Stdout = outw
	cmd.Stderr = errw

	runErr := cmd.Run()
	_ = killProcessGroup(cmd)

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.Truncated = outw.dropped || errw.dropped

	switch {
	case runErr == nil:
		res.Outcome = Success
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Outcome = TimedOut
	case runCtx.Err() != nil:
		res.Outcome = Failed
		res.Message = "canceled"
	case errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		// The process exited but a background descendant kept a pipe open.
		classifyState(res, cmd.ProcessState)
	default:
		classifyError(res, runErr)
	}
	return res
}

// classifyError maps a cmd.Run error that is not due to the deadline.
func classifyError(res *Result, err error) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.Outcome = NonZeroExit
		res.ExitCode = exitErr.ExitCode()
		res.Message = exitErr.Error()
		return
	}
	if isNotFound(err) {
		// The binary vanished or lost its exec bit between lookup and start.
		res.Outcome = NotFound
		return
	}
	res.Outcome = Failed
	res.Message = err.Error()
}

func classifyState(res *Result, state *os.ProcessState) {
	if state.Success() {
		res.Outcome = Success
		return
	}
	res.Outcome = NonZeroExit
	res.ExitCode = state.ExitCode()
	res.Message = state.String()
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

func (r *Runner) timeout(inv Invocation) time.Duration {
	if inv.Timeout > 0 {
		return inv.Timeout
	}
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func (r *Runner) maxOutput() int {
	if r.MaxOutput > 0 {
		return r.MaxOutput
	}
	return DefaultMaxOutput
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.dropped = len(p) > 0 || w.dropped
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
