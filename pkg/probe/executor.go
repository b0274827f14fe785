// Package probe classifies candidate command lines by running them against
// the real tools in a side-effect-minimized way.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// CommandResult holds the output of a single command execution.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// CommandExecutor abstracts real vs scripted command execution.
// Implementations: RealExecutor (production), test doubles.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error)
}

// RealExecutor runs commands via os/exec. Cancellation and deadlines come
// from the context; an expired deadline kills the process.
type RealExecutor struct{}

// Execute runs command with args, capturing stdout and stderr in full.
// A non-zero exit is not an error: it is reported through ExitCode. The
// returned error is reserved for failures to run at all (binary missing,
// context expired before completion).
func (r *RealExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		// The context beats the process: a killed process surfaces as an
		// ExitError, so check the deadline before the exit status.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("execute command %q: %w", command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandResult{
				Stdout:   stdout.Bytes(),
				Stderr:   stderr.Bytes(),
				ExitCode: exitErr.ExitCode(),
				Duration: duration,
			}, nil
		}
		return nil, fmt.Errorf("execute command %q: %w", command, err)
	}

	return &CommandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: 0,
		Duration: duration,
	}, nil
}

// isExecNotFound returns true when the error indicates the executable was
// not found on PATH.
func isExecNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
