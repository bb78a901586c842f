package radio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single backend command
const DefaultCommandTimeout = 10 * time.Second

// Result is the captured outcome of one backend command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes backend commands. The exec implementation is used in
// production; tests substitute a scripted runner.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec and a per-command timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes name with args and captures stdout and stderr.
// A non-zero exit status is reported as an error alongside the result.
func (e ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := exec.CommandContext(timeoutCtx, name, args...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}

	if timeoutCtx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = err.Error()
		}
		// Arguments are left out: they may carry a passphrase
		return res, fmt.Errorf("%s: exit %d: %s", name, res.ExitCode, msg)
	}
	return res, nil
}

// CheckBinary verifies that name is on PATH and returns its location.
func CheckBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH (install NetworkManager or use the sim backend): %w", name, err)
	}
	return path, nil
}
