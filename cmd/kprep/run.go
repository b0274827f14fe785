package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/kprep/pkg/bank"
	"github.com/ormasoftchile/kprep/pkg/command"
	"github.com/ormasoftchile/kprep/pkg/probe"
	"github.com/ormasoftchile/kprep/pkg/render"
	"github.com/ormasoftchile/kprep/pkg/session"
)

var (
	runTimeout   string
	runHistory   string
	runQuestions []string
	runNoProbe   bool
)

var runCmd = &cobra.Command{
	Use:   "run [bank.yaml]",
	Short: "Run an interactive exam session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

// defaultHistoryPath puts the shared command history next to the user's
// other dotfiles; the session appends to it across runs.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kprep_history")
}

func runRun(cmd *cobra.Command, args []string) error {
	b, errs := bank.ValidateFile(args[0])
	if bank.HasErrors(errs) {
		reportValidation(errs)
		return fmt.Errorf("bank validation failed")
	}
	reportWarnings(errs)

	prober := probe.NewProber(&probe.RealExecutor{}, os.Stdout)
	aliases := command.Aliases{}
	if b.Meta.Probe != nil {
		prober.Timeout = b.Meta.Probe.TimeoutDuration(probe.DefaultTimeout)
		if len(b.Meta.Probe.Denied) > 0 || len(b.Meta.Probe.Allowed) > 0 {
			prober.Guard = &probe.Guard{Allowed: b.Meta.Probe.Allowed, Denied: b.Meta.Probe.Denied}
		}
		for family, name := range b.Meta.Probe.Policies {
			policy, err := probe.ParsePolicy(name)
			if err != nil {
				return fmt.Errorf("meta.probe.policies.%s: %w", family, err)
			}
			prober.Policies[family] = policy
		}
	}
	for _, a := range b.Meta.Aliases {
		aliases[a.Short] = a.Full
	}
	if runTimeout != "" {
		d, err := time.ParseDuration(runTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", runTimeout, err)
		}
		prober.Timeout = d
	}

	reader, err := session.NewReadlineReader(runHistory)
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer reader.Close()

	help := &probe.HelpDispatcher{Executor: &probe.RealExecutor{}, Output: os.Stdout}
	collector := session.NewCollector(command.NewNormalizer(aliases), prober, help, reader, os.Stdout, runNoProbe)
	sess := session.New(b, collector, render.New(os.Stdout), os.Stdout)

	if len(runQuestions) > 0 {
		if err := sess.Select(runQuestions); err != nil {
			return err
		}
	}

	fmt.Printf("%s — %d question(s)\n", b.Meta.Name, len(b.Questions))
	if b.Meta.Description != "" {
		fmt.Println(b.Meta.Description)
	}

	_, err = sess.Run(context.Background())
	return err
}
