package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/portledger/sofextract/internal/config"
	"github.com/portledger/sofextract/internal/ingest"
	"github.com/portledger/sofextract/internal/server"
)

var processCmd = &cobra.Command{
	Use:   "process <file> [file...]",
	Short: "Extract structured records from SOF documents",
	Long: `Run the dual-pass extraction pipeline over one or more Statement of
Facts documents (.pdf, .txt, or .md) and print the resulting records as a
JSON array on stdout.

Examples:
  sofextract process sof.pdf
  sofextract process voyage-1.pdf voyage-2.txt > records.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Logs go to stderr so stdout stays clean for the JSON output.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		st, err := buildStack(cm, logger)
		if err != nil {
			return err
		}

		results := make([]server.DocumentResult, 0, len(args))
		for _, path := range args {
			text, err := ingest.Text(path, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rec, err := st.processor.Process(ctx, text)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results = append(results, server.DocumentResult{
				Record:   *rec,
				FileName: filepath.Base(path),
			})
		}

		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
