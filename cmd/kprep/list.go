package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/kprep/pkg/bank"
)

var listCmd = &cobra.Command{
	Use:   "list [bank.yaml]",
	Short: "List the questions in a bank",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	b, errs := bank.ValidateFile(args[0])
	if bank.HasErrors(errs) {
		reportValidation(errs)
		return fmt.Errorf("bank validation failed")
	}

	idWidth := 0
	for _, q := range b.Questions {
		if w := runewidth.StringWidth(q.ID); w > idWidth {
			idWidth = w
		}
	}

	for _, q := range b.Questions {
		title := firstLine(q.Prompt)
		tags := fmt.Sprintf("%d checklist item(s)", len(q.Checklist))
		if len(q.Mocks) > 0 {
			tags += ", mock output"
		}
		fmt.Printf("%s  %s  (%s)\n", runewidth.FillRight(q.ID, idWidth), title, tags)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
