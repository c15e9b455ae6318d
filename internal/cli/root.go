// Package cli holds the cobra command tree for the log analyzer.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/armash/log-analyzer/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "log-analyzer",
	Short: "Normalize application logs and detect error anomalies",
	Long: `log-analyzer ingests plain-text and structured JSON log files,
normalizes them into one record batch, filters by service or host, and
reports error bursts (5 errors within 60 seconds) and recurring issues
(the same error message across multiple days).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./log-analyzer.yaml or $HOME/log-analyzer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cobra.CheckErr(config.Init(viper.GetViper(), cfgFile))
}

func newLogger() (*zap.Logger, error) {
	if viper.GetBool(config.KeyVerbose) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
