package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/kprep/pkg/bank"
)

var validateCmd = &cobra.Command{
	Use:   "validate [bank.yaml]",
	Short: "Validate a question bank file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	b, errs := bank.ValidateFile(args[0])
	if bank.HasErrors(errs) {
		reportValidation(errs)
		return fmt.Errorf("validation failed")
	}
	reportWarnings(errs)
	fmt.Printf("✓ %s is valid (%d questions)\n", b.Meta.Name, len(b.Questions))
	return nil
}

// reportValidation prints warnings first, then numbered errors, to stderr.
func reportValidation(errs []*bank.ValidationError) {
	reportWarnings(errs)
	n := 0
	for _, e := range errs {
		if e.Severity == "warning" {
			continue
		}
		n++
		fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", n, e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
		}
	}
	fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n", n)
}

func reportWarnings(errs []*bank.ValidationError) {
	for _, e := range errs {
		if e.Severity != "warning" {
			continue
		}
		fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
		}
	}
}
