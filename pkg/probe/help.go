package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const helpMarker = "--help"

// IsHelpRequest reports whether the line asks for inline tool help.
// The marker may appear anywhere in the line.
func IsHelpRequest(line string) bool {
	return strings.Contains(line, helpMarker)
}

// HelpDispatcher runs help invocations directly against the external tool
// and prints the full output. Help lines are informational only; the
// caller must never store them in an answer.
type HelpDispatcher struct {
	Executor CommandExecutor
	Output   io.Writer
}

// Run executes the line's tokens with no timeout and prints stdout, stderr
// and the exit code. Every failure is absorbed: a missing tool gets a clear
// message, anything else a generic one, and the session continues.
func (h *HelpDispatcher) Run(ctx context.Context, line string) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return
	}

	fmt.Fprintf(h.Output, "\n[help] %s\n%s\n", line, strings.Repeat("-", 40))

	res, err := h.Executor.Execute(ctx, tokens[0], tokens[1:], nil)
	if err != nil {
		if isExecNotFound(err) {
			fmt.Fprintf(h.Output, "[error] %q not found on PATH\n\n", tokens[0])
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(h.Output, "[error] %v\n\n", err)
		return
	}

	if len(res.Stdout) > 0 {
		fmt.Fprintf(h.Output, "%s", res.Stdout)
	}
	if len(res.Stderr) > 0 {
		fmt.Fprintf(h.Output, "%s", res.Stderr)
	}
	fmt.Fprintf(h.Output, "%s\nexit code: %d\n\n", strings.Repeat("-", 40), res.ExitCode)
}
