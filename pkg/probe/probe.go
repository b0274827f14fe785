package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Outcome classifies what the probe learned about a candidate line.
type Outcome int

const (
	// OutcomeAccepted: the tool parsed and accepted the line.
	OutcomeAccepted Outcome = iota
	// OutcomeRejected: the tool reported a usage error (or could not run).
	OutcomeRejected
	// OutcomeIndeterminate: the probe timed out. Treated as accepted:
	// a slow but valid command must not block the session.
	OutcomeIndeterminate
	// OutcomeSkipped: the line was not probed at all (unrecognized or
	// exempt family, or guard-denied command). Kept unconditionally.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeIndeterminate:
		return "indeterminate"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

// Keep reports whether the line should go into the answer without asking
// the user. Only a rejection opens the retry dialog.
func (o Outcome) Keep() bool {
	return o != OutcomeRejected
}

// Policy selects how a recognized command family is validated.
type Policy int

const (
	// PolicySkip: not a recognized family; keep the line unprobed.
	PolicySkip Policy = iota
	// PolicyProbe: run the token argv directly under the short timeout,
	// with dry-run mutation for mutating kubectl subcommands.
	PolicyProbe
	// PolicyShell: run the raw line through `sh -c` under the same
	// timeout, so pipes and redirection are honored.
	PolicyShell
	// PolicyAccept: family exempt from probing (its invocations cannot
	// be dry-run safely); always accepted.
	PolicyAccept
)

// ParsePolicy maps a bank configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "skip":
		return PolicySkip, nil
	case "probe":
		return PolicyProbe, nil
	case "shell":
		return PolicyShell, nil
	case "accept":
		return PolicyAccept, nil
	}
	return PolicySkip, fmt.Errorf("unknown probe policy %q", s)
}

// PolicyTable maps a leading command token to its probe policy. Adding a
// recognized family is a one-entry edit.
type PolicyTable map[string]Policy

// DefaultPolicies returns the built-in family table.
//
// etcdctl is exempt: snapshot save/restore has no safe dry-run form, so
// those lines are always accepted. bash/sh lines go through a real shell.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		"kubectl":   PolicyProbe,
		"kubeadm":   PolicyProbe,
		"apt-get":   PolicyProbe,
		"systemctl": PolicyProbe,
		"etcdctl":   PolicyAccept,
		"bash":      PolicyShell,
		"sh":        PolicyShell,
	}
}

// envAssignRe matches a leading NAME=VALUE environment assignment token.
var envAssignRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// LeadingCommand returns the first token that is not an environment
// assignment: the token the policy lookup is keyed on.
func LeadingCommand(line string) string {
	for _, tok := range strings.Fields(line) {
		if envAssignRe.MatchString(tok) {
			continue
		}
		return tok
	}
	return ""
}

// hasShellSyntax reports whether the line needs a real shell: pipes,
// redirection, chaining, or leading environment assignments.
func hasShellSyntax(line string) bool {
	if strings.ContainsAny(line, "|><;&") {
		return true
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && envAssignRe.MatchString(fields[0])
}

// For resolves the policy for one normalized line. Exempt families win
// over shell syntax: an etcdctl pipeline still cannot be probed safely.
func (t PolicyTable) For(line string) Policy {
	cmd := LeadingCommand(line)
	policy, recognized := t[cmd]
	if recognized && policy == PolicyAccept {
		return PolicyAccept
	}
	if hasShellSyntax(line) {
		if recognized {
			return PolicyShell
		}
		return PolicySkip
	}
	if !recognized {
		return PolicySkip
	}
	return policy
}

// Guard lists commands the prober must not execute even for a dry run.
// Deny takes precedence over allow; an empty allowlist allows everything
// not denied.
type Guard struct {
	Allowed []string
	Denied  []string
}

// Check validates a command name against the guard.
func (g *Guard) Check(command string) error {
	if g == nil {
		return nil
	}
	for _, denied := range g.Denied {
		if command == denied {
			return fmt.Errorf("command %q is denied by the probe guard", command)
		}
	}
	if len(g.Allowed) > 0 {
		for _, allowed := range g.Allowed {
			if command == allowed {
				return nil
			}
		}
		return fmt.Errorf("command %q is not in the probe allowlist", command)
	}
	return nil
}

// CheckShell scans every token of a shell line against the deny list. The
// allowlist is not applied here: most shell-line tokens are flags and
// operands, not command names.
func (g *Guard) CheckShell(line string) error {
	if g == nil {
		return nil
	}
	for _, tok := range strings.Fields(line) {
		tok = strings.Trim(tok, `"'`)
		for _, denied := range g.Denied {
			if tok == denied {
				return fmt.Errorf("command %q is denied by the probe guard", denied)
			}
		}
	}
	return nil
}

// Report is the result of probing one candidate line.
type Report struct {
	Outcome Outcome
	Argv    []string // what was (or would have been) executed
	Detail  string   // one-line explanation for skip/indeterminate/reject
}

// Prober decides whether a candidate line is likely usage-valid by running
// it, possibly mutated into a dry invocation, under a short timeout.
//
// The prober is explicitly a heuristic. A timeout is a false-accept by
// policy, and an unrelated tool error is a false reject. Diagnostic output
// goes to Output so the user can judge for themselves.
type Prober struct {
	Executor CommandExecutor
	Policies PolicyTable
	Guard    *Guard
	Timeout  time.Duration
	Output   io.Writer
}

// DefaultTimeout bounds a single probe invocation.
const DefaultTimeout = 2 * time.Second

// NewProber builds a prober with the default policy table and timeout.
func NewProber(executor CommandExecutor, output io.Writer) *Prober {
	return &Prober{
		Executor: executor,
		Policies: DefaultPolicies(),
		Guard:    &Guard{Denied: []string{"rm", "dd", "mkfs", "shutdown", "reboot", "halt"}},
		Timeout:  DefaultTimeout,
		Output:   output,
	}
}

// Probe classifies one normalized candidate line. Lines kept without a
// real probe run get an [info] notice so the user knows nothing was checked.
func (p *Prober) Probe(ctx context.Context, line string) Report {
	switch p.Policies.For(line) {
	case PolicySkip:
		return p.skip("unrecognized command family, kept without probing")
	case PolicyAccept:
		return p.skip(fmt.Sprintf("%s is exempt from probing, kept as-is", LeadingCommand(line)))
	case PolicyShell:
		if err := p.Guard.CheckShell(line); err != nil {
			return p.skip(err.Error() + ", kept without probing")
		}
		return p.run(ctx, []string{"sh", "-c", line})
	}

	tokens := strings.Fields(line)
	if err := p.Guard.Check(tokens[0]); err != nil {
		return p.skip(err.Error() + ", kept without probing")
	}
	return p.run(ctx, DryRunArgv(tokens))
}

// skip reports an unprobed keep and surfaces the reason to the user.
func (p *Prober) skip(detail string) Report {
	fmt.Fprintf(p.Output, "[info] %s\n", detail)
	return Report{Outcome: OutcomeSkipped, Detail: detail}
}

// run executes argv under the probe timeout and classifies the result.
func (p *Prober) run(ctx context.Context, argv []string) Report {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fmt.Fprintf(p.Output, "\n[probe] %s\n", strings.Join(argv, " "))

	res, err := p.Executor.Execute(ctx, argv[0], argv[1:], nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(p.Output, "[info] probe timed out after %s, assuming the command is valid\n", timeout)
			return Report{Outcome: OutcomeIndeterminate, Argv: argv, Detail: "probe timed out"}
		}
		if isExecNotFound(err) {
			fmt.Fprintf(p.Output, "[error] %q not found on PATH\n", argv[0])
			return Report{Outcome: OutcomeRejected, Argv: argv, Detail: fmt.Sprintf("%q not found", argv[0])}
		}
		fmt.Fprintf(p.Output, "[error] %v\n", err)
		return Report{Outcome: OutcomeRejected, Argv: argv, Detail: err.Error()}
	}

	if res.ExitCode != 0 {
		if len(res.Stdout) > 0 {
			fmt.Fprintf(p.Output, "%s", res.Stdout)
		}
		if len(res.Stderr) > 0 {
			fmt.Fprintf(p.Output, "%s", res.Stderr)
		}
		fmt.Fprintf(p.Output, "[error] command exited with code %d\n", res.ExitCode)
		return Report{Outcome: OutcomeRejected, Argv: argv, Detail: fmt.Sprintf("exit code %d", res.ExitCode)}
	}
	return Report{Outcome: OutcomeAccepted, Argv: argv}
}

// DryRunArgv converts a potentially mutating kubectl invocation into a dry
// one: create/delete subcommands gain --dry-run=client and `-o yaml` when
// neither is already present. All other argvs pass through unchanged.
func DryRunArgv(tokens []string) []string {
	if len(tokens) < 2 || tokens[0] != "kubectl" {
		return tokens
	}
	if tokens[1] != "create" && tokens[1] != "delete" {
		return tokens
	}

	out := make([]string, len(tokens))
	copy(out, tokens)

	hasDryRun := false
	hasOutput := false
	for _, t := range out {
		if strings.HasPrefix(t, "--dry-run") {
			hasDryRun = true
		}
		if t == "-o" || t == "--output" || strings.HasPrefix(t, "-o=") || strings.HasPrefix(t, "--output=") {
			hasOutput = true
		}
	}

	if !hasDryRun {
		out = append(out[:2], append([]string{"--dry-run=client"}, out[2:]...)...)
	}
	if !hasOutput {
		out = append(out[:3], append([]string{"-o", "yaml"}, out[3:]...)...)
	}
	return out
}
