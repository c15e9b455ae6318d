package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armash/log-analyzer/internal/config"
	"github.com/armash/log-analyzer/internal/engine"
	"github.com/armash/log-analyzer/internal/index"
	"github.com/armash/log-analyzer/internal/ingest"
	"github.com/armash/log-analyzer/internal/query"
	"github.com/armash/log-analyzer/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze log files and write CSV reports",
	Example: `  # Analyze a text log and a structured JSON log together
  log-analyzer analyze --log app.log --json app.json --out reports

  # Only the payment service on one host
  log-analyzer analyze --log app.log --service payment --host host1

  # Query DSL instead of individual flags
  log-analyzer analyze --log app.log --query "service=payment level=ERROR"`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String(config.KeyLogPath, "", "path to a plain-text log file")
	f.String(config.KeyJSONPath, "", "path to a structured JSON log file")
	f.String(config.KeyOutDir, "output", "directory for CSV reports")
	f.String(config.KeyService, "", "keep only records from this service")
	f.String(config.KeyHost, "", "keep only records from this host")
	f.String(config.KeyQuery, "", "filter query (service=.. host=.. level=.. message~..)")
	f.String(config.KeyStorePath, "", "append the analyzed batch to this JSONL store")
	f.String(config.KeyLoadPath, "", "replay a JSONL store instead of reading sources")
	f.String(config.KeySnapshot, "", "write a snapshot of the analyzed batch to this path")
	f.String(config.KeySnapshotLoad, "", "load a snapshot instead of reading sources")
	f.String(config.KeyDBHost, "", "persist the analyzed batch to ClickHouse on this host")
	f.Bool(config.KeyQuiet, false, "suppress the summary output")
}

func optionsFromViper() (engine.Options, error) {
	filters := query.Filters{
		Service: viper.GetString(config.KeyService),
		Host:    viper.GetString(config.KeyHost),
	}
	if q := viper.GetString(config.KeyQuery); q != "" {
		parsed, err := query.Parse(q)
		if err != nil {
			return engine.Options{}, fmt.Errorf("invalid --query: %w", err)
		}
		if filters.Service != "" {
			parsed.Service = filters.Service
		}
		if filters.Host != "" {
			parsed.Host = filters.Host
		}
		filters = parsed
	}

	return engine.Options{
		Sources: ingest.Sources{
			TextPath: viper.GetString(config.KeyLogPath),
			JSONPath: viper.GetString(config.KeyJSONPath),
		},
		Filters:      filters,
		OutDir:       viper.GetString(config.KeyOutDir),
		StorePath:    viper.GetString(config.KeyStorePath),
		LoadPath:     viper.GetString(config.KeyLoadPath),
		SnapshotPath: viper.GetString(config.KeySnapshot),
		SnapshotLoad: viper.GetString(config.KeySnapshotLoad),
		DBHost:       viper.GetString(config.KeyDBHost),
	}, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// analyze and serve share keys, so bind this command's flags only now
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

	result, err := engine.Run(cmd.Context(), logger, opts)
	if err != nil {
		return err
	}

	if !viper.GetBool(config.KeyQuiet) {
		printSummary(cmd, result, opts.OutDir)
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *engine.Result, outDir string) {
	out := cmd.OutOrStdout()
	m := result.Metrics

	fmt.Fprintf(out, "Loaded %d records (%d after filters)\n", m.RecordsLoaded, m.RecordsAnalyzed)

	idx := index.Build(result.Records)
	for _, level := range idx.Levels {
		fmt.Fprintf(out, "  %s %d\n", colorLevel(level), len(idx.ByLevel[level]))
	}

	fmt.Fprintf(out, "Bursts detected: %d\n", m.BurstsFound)
	for _, w := range result.Bursts {
		fmt.Fprintf(out, "  %s .. %s (%d errors in %s)\n",
			w.Start().Format(types.TextTimeLayout),
			w.End().Format(types.TextTimeLayout),
			len(w.Times), w.Span())
	}

	fmt.Fprintf(out, "Recurring issues: %d\n", m.RecurringFound)
	messages := make([]string, 0, len(result.Recurring))
	for msg := range result.Recurring {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	for _, msg := range messages {
		fmt.Fprintf(out, "  %q on %s\n", msg, strings.Join(result.Recurring[msg], ", "))
	}

	if outDir != "" {
		fmt.Fprintf(out, "CSV reports written to %s\n", outDir)
	}
}

func colorLevel(level string) string {
	switch level {
	case "ERROR":
		return color.RedString(level)
	case "WARN":
		return color.YellowString(level)
	case "INFO":
		return color.GreenString(level)
	default:
		return level
	}
}
