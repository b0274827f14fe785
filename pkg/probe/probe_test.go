package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

// scriptedExecutor returns whatever its function says, recording the argv.
type scriptedExecutor struct {
	fn    func(command string, args []string) (*CommandResult, error)
	calls [][]string
}

func (s *scriptedExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error) {
	s.calls = append(s.calls, append([]string{command}, args...))
	return s.fn(command, args)
}

func okExecutor() *scriptedExecutor {
	return &scriptedExecutor{fn: func(string, []string) (*CommandResult, error) {
		return &CommandResult{ExitCode: 0}, nil
	}}
}

func newTestProber(exec CommandExecutor) (*Prober, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewProber(exec, &buf), &buf
}

func TestDryRunArgvInjectsBothFlags(t *testing.T) {
	tokens := []string{"kubectl", "create", "clusterrole", "deployment-clusterrole", "--verb=create"}
	got := DryRunArgv(tokens)

	dryRun, output := 0, 0
	for _, tok := range got {
		if strings.HasPrefix(tok, "--dry-run") {
			dryRun++
		}
		if tok == "-o" || tok == "--output" {
			output++
		}
	}
	if dryRun != 1 {
		t.Errorf("argv %v has %d dry-run flags, want exactly 1", got, dryRun)
	}
	if output != 1 {
		t.Errorf("argv %v has %d output flags, want exactly 1", got, output)
	}
	// yaml must directly follow -o
	for i, tok := range got {
		if tok == "-o" && (i+1 >= len(got) || got[i+1] != "yaml") {
			t.Errorf("argv %v: -o not followed by yaml", got)
		}
	}
	// original tokens survive in order
	if got[len(got)-1] != "--verb=create" {
		t.Errorf("argv %v lost trailing flag", got)
	}
}

func TestDryRunArgvRespectsExistingFlags(t *testing.T) {
	tests := [][]string{
		{"kubectl", "create", "serviceaccount", "x", "--dry-run=server", "-o", "json"},
		{"kubectl", "delete", "pod", "x", "--dry-run=client", "--output", "yaml"},
	}
	for _, tokens := range tests {
		got := DryRunArgv(tokens)
		dryRun := 0
		for _, tok := range got {
			if strings.HasPrefix(tok, "--dry-run") {
				dryRun++
			}
		}
		if dryRun != 1 {
			t.Errorf("DryRunArgv(%v) = %v, want exactly 1 dry-run flag", tokens, got)
		}
	}
}

func TestDryRunArgvLeavesOtherCommandsAlone(t *testing.T) {
	tests := [][]string{
		{"kubectl", "get", "nodes"},
		{"kubectl", "cordon", "ek8s-node-1"},
		{"systemctl", "restart", "kubelet"},
		{"kubeadm", "upgrade", "apply", "1.19.0"},
	}
	for _, tokens := range tests {
		got := DryRunArgv(tokens)
		if len(got) != len(tokens) {
			t.Errorf("DryRunArgv(%v) = %v, want unchanged", tokens, got)
		}
	}
}

func TestPolicyForFamilies(t *testing.T) {
	table := DefaultPolicies()
	tests := []struct {
		line string
		want Policy
	}{
		{"kubectl get nodes", PolicyProbe},
		{"systemctl restart kubelet", PolicyProbe},
		{"kubectl get nodes | grep -i ready", PolicyShell},
		{"kubectl logs foobar > /opt/KUTR00101/foobar", PolicyShell},
		{"bash -c 'echo hi'", PolicyShell},
		{"ETCDCTL_API=3 etcdctl snapshot save /srv/data/etcd-snapshot.db", PolicyAccept},
		{"etcdctl snapshot restore /var/lib/backup/etcd-snapshot-previous.db", PolicyAccept},
		{"vim /etc/hosts", PolicySkip},
		{"grep -i ready somefile | wc -l", PolicySkip},
	}
	for _, tt := range tests {
		if got := table.For(tt.line); got != tt.want {
			t.Errorf("For(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestLeadingCommandSkipsEnvAssignments(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"ETCDCTL_API=3 etcdctl snapshot save x", "etcdctl"},
		{"FOO=1 BAR=2 kubectl get pods", "kubectl"},
		{"kubectl get pods", "kubectl"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LeadingCommand(tt.line); got != tt.want {
			t.Errorf("LeadingCommand(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestProbeAcceptsZeroExit(t *testing.T) {
	exec := okExecutor()
	p, _ := newTestProber(exec)

	rep := p.Probe(context.Background(), "kubectl get nodes")
	if rep.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", rep.Outcome)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("executor called %d times, want 1", len(exec.calls))
	}
}

func TestProbeRejectsNonZeroExit(t *testing.T) {
	exec := &scriptedExecutor{fn: func(string, []string) (*CommandResult, error) {
		return &CommandResult{ExitCode: 1, Stderr: []byte("error: unknown command \"crate\"\n")}, nil
	}}
	p, buf := newTestProber(exec)

	rep := p.Probe(context.Background(), "kubectl crate pod")
	if rep.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", rep.Outcome)
	}
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("diagnostic output not shown to the user: %q", buf.String())
	}
}

func TestProbeTimeoutIsIndeterminate(t *testing.T) {
	exec := &scriptedExecutor{fn: func(string, []string) (*CommandResult, error) {
		return nil, fmt.Errorf("execute command \"kubectl\": %w", context.DeadlineExceeded)
	}}
	p, buf := newTestProber(exec)

	rep := p.Probe(context.Background(), "kubectl drain ek8s-node-1")
	if rep.Outcome != OutcomeIndeterminate {
		t.Fatalf("outcome = %v, want indeterminate", rep.Outcome)
	}
	if !rep.Outcome.Keep() {
		t.Error("indeterminate outcome must keep the line")
	}
	if !strings.Contains(buf.String(), "timed out") {
		t.Errorf("timeout not reported: %q", buf.String())
	}
}

func TestProbeToolMissingIsRejected(t *testing.T) {
	execNotFound := &scriptedExecutor{fn: func(command string, _ []string) (*CommandResult, error) {
		return nil, fmt.Errorf("execute command %q: %w", command, &exec.Error{Name: command, Err: exec.ErrNotFound})
	}}
	p, buf := newTestProber(execNotFound)

	rep := p.Probe(context.Background(), "kubectl get nodes")
	if rep.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", rep.Outcome)
	}
	if !strings.Contains(buf.String(), "not found") {
		t.Errorf("missing-tool message not shown: %q", buf.String())
	}
}

func TestProbeUnexpectedErrorIsRejected(t *testing.T) {
	exec := &scriptedExecutor{fn: func(string, []string) (*CommandResult, error) {
		return nil, fmt.Errorf("execute command: pipe burst")
	}}
	p, _ := newTestProber(exec)

	rep := p.Probe(context.Background(), "kubectl get nodes")
	if rep.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", rep.Outcome)
	}
}

func TestProbeSkipsUnrecognizedFamily(t *testing.T) {
	exec := okExecutor()
	p, buf := newTestProber(exec)

	rep := p.Probe(context.Background(), "vim /etc/hosts")
	if rep.Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", rep.Outcome)
	}
	if len(exec.calls) != 0 {
		t.Errorf("unrecognized family must not be executed, got calls %v", exec.calls)
	}
	if !strings.Contains(buf.String(), "kept without probing") {
		t.Errorf("skip notice not shown to the user: %q", buf.String())
	}
}

func TestProbeExemptFamilyNeverExecuted(t *testing.T) {
	exec := okExecutor()
	p, buf := newTestProber(exec)

	rep := p.Probe(context.Background(), "ETCDCTL_API=3 etcdctl snapshot save /srv/data/etcd-snapshot.db")
	if rep.Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", rep.Outcome)
	}
	if len(exec.calls) != 0 {
		t.Errorf("exempt family must not be executed, got calls %v", exec.calls)
	}
	if !strings.Contains(buf.String(), "exempt") {
		t.Errorf("exemption notice not shown to the user: %q", buf.String())
	}
}

func TestProbeShellFamilyRunsThroughShell(t *testing.T) {
	exec := okExecutor()
	p, _ := newTestProber(exec)

	line := "kubectl get nodes | grep -i ready"
	rep := p.Probe(context.Background(), line)
	if rep.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", rep.Outcome)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("executor called %d times, want 1", len(exec.calls))
	}
	argv := exec.calls[0]
	if argv[0] != "sh" || argv[1] != "-c" || argv[2] != line {
		t.Errorf("shell probe argv = %v, want sh -c %q", argv, line)
	}
}

func TestGuardDeniedCommandIsNotProbed(t *testing.T) {
	exec := okExecutor()
	p, buf := newTestProber(exec)
	p.Policies["rm"] = PolicyProbe // recognize it so only the guard stands in the way

	rep := p.Probe(context.Background(), "rm -rf /srv/data")
	if rep.Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", rep.Outcome)
	}
	if len(exec.calls) != 0 {
		t.Errorf("guard-denied command must not be executed, got calls %v", exec.calls)
	}
	if !strings.Contains(buf.String(), "denied by the probe guard") {
		t.Errorf("guard notice not shown to the user: %q", buf.String())
	}
}

func TestGuardDeniedTokenInShellLineIsNotProbed(t *testing.T) {
	lines := []string{
		`bash -c "rm -rf /tmp/x"`,
		"kubectl get pods; rm -rf /srv/data",
	}
	for _, line := range lines {
		exec := okExecutor()
		p, _ := newTestProber(exec)

		rep := p.Probe(context.Background(), line)
		if rep.Outcome != OutcomeSkipped {
			t.Fatalf("Probe(%q) outcome = %v, want skipped", line, rep.Outcome)
		}
		if len(exec.calls) != 0 {
			t.Errorf("denied shell line %q must not be executed, got calls %v", line, exec.calls)
		}
	}
}

func TestGuardCheckShell(t *testing.T) {
	g := &Guard{Allowed: []string{"kubectl"}, Denied: []string{"rm", "dd"}}
	if err := g.CheckShell("kubectl get nodes | grep -i ready"); err != nil {
		t.Errorf("expected shell line to pass, got: %v", err)
	}
	if err := g.CheckShell(`bash -c 'dd if=/dev/zero of=/dev/sda'`); err == nil {
		t.Error("expected rejection for denied token in shell line")
	}
}

func TestGuardAllowlist(t *testing.T) {
	g := &Guard{Allowed: []string{"kubectl", "kubeadm"}}
	if err := g.Check("kubectl"); err != nil {
		t.Errorf("expected allowed, got: %v", err)
	}
	if err := g.Check("systemctl"); err == nil {
		t.Error("expected rejection for command outside allowlist")
	}
	g = &Guard{Allowed: []string{"rm"}, Denied: []string{"rm"}}
	if err := g.Check("rm"); err == nil {
		t.Error("deny must take precedence over allow")
	}
}

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]Policy{
		"probe": PolicyProbe, "shell": PolicyShell, "accept": PolicyAccept, "skip": PolicySkip,
	} {
		got, err := ParsePolicy(name)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParsePolicy("yolo"); err == nil {
		t.Error("expected error for unknown policy name")
	}
}
