package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/portledger/sofextract/internal/config"
	"github.com/portledger/sofextract/internal/server"
)

var (
	serveHost string
	servePort string
	verbose   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sofextract server",
	Long: `Start the sofextract HTTP server.

The server provides:
  - /              - Frontend pages (upload, results)
  - /api/process   - Document processing endpoint (multipart upload)
  - /api/llmcalls  - Recent LLM call history
  - /health        - Basic server health check

The config file is watched for changes; edits to provider settings take
effect without a restart.

Examples:
  sofextract serve                    # Start on default port 8080
  sofextract serve --port 3000        # Start on custom port
  sofextract serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		st, err := buildStack(cm, logger)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Processor:     st.processor,
			Calls:         st.calls,
			Registry:      st.registry,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
}
