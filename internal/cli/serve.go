package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armash/log-analyzer/internal/config"
	"github.com/armash/log-analyzer/internal/engine"
	"github.com/armash/log-analyzer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an analyzed batch over HTTP",
	Long: `Loads and analyzes the configured sources once, then serves the
batch over HTTP: /query, /bursts, /recurring, /metrics, /health and a
POST /ingest endpoint for appending structured entries.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String(config.KeyLogPath, "", "path to a plain-text log file")
	f.String(config.KeyJSONPath, "", "path to a structured JSON log file")
	f.String(config.KeyLoadPath, "", "replay a JSONL store instead of reading sources")
	f.Int(config.KeyPort, 8080, "listen port")
	f.String(config.KeyAPIKey, "", "require this X-API-Key header on /ingest")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := optionsFromViper()
	if err != nil {
		return err
	}
	opts.OutDir = ""

	result, err := engine.Run(cmd.Context(), logger, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(logger, result.Records, result.Metrics, viper.GetString(config.KeyAPIKey))
	addr := fmt.Sprintf(":%d", viper.GetInt(config.KeyPort))
	return srv.Start(ctx, addr)
}
