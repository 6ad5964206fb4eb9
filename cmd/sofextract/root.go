package main

import (
	"github.com/spf13/cobra"

	"github.com/portledger/sofextract/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sofextract",
	Short: "Statement of Facts extraction with dual-pass LLM adjudication",
	Long: `sofextract turns port Statement of Facts documents into structured,
schema-validated records: vessel and port details, timed port events with
durations, laytime remarks, and approvals.

Each document is extracted twice at different sampling temperatures, then a
third model call adjudicates the two candidates against the source text and
emits the final record with per-field confidence scores.`,
	Version: version.GitRelease,

	// main prints the error once; suppress cobra's own reporting.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sofextract/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
