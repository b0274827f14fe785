package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kprep",
	Short: "Interactive cluster-administration exam trainer",
	Long: `kprep — an interactive command-line trainer for cluster-administration
certification exams. Questions come from a YAML bank; answers are typed one
command per line and syntax-checked against the real tools with a short,
side-effect-free probe before being scored against a keyword checklist.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kprep %s (build: %s)\n", version, commit)
	},
}

func init() {
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "Probe timeout (e.g. 2s); overrides the bank setting")
	runCmd.Flags().StringVar(&runHistory, "history", defaultHistoryPath(), "Readline history file (empty to disable)")
	runCmd.Flags().StringSliceVar(&runQuestions, "questions", nil, "Comma-separated question IDs to run (default: all)")
	runCmd.Flags().BoolVar(&runNoProbe, "no-probe", false, "Skip syntax probing; keep every line unconditionally")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
