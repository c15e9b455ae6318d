// Package config wires the viper configuration layer: file, environment
// and flag values share one key space.
//
// Configuration sources, in priority order: command line flags,
// LOG_ANALYZER_* environment variables, a log-analyzer.yaml file in the
// working directory or $HOME, then defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys used across the CLI.
const (
	KeyLogPath      = "log"
	KeyJSONPath     = "json"
	KeyOutDir       = "out"
	KeyService      = "service"
	KeyHost         = "host"
	KeyQuery        = "query"
	KeyStorePath    = "store"
	KeyLoadPath     = "load"
	KeySnapshot     = "snapshot"
	KeySnapshotLoad = "snapshot-load"
	KeyDBHost       = "db-host"
	KeyQuiet        = "quiet"
	KeyPort         = "port"
	KeyAPIKey       = "api-key"
	KeyVerbose      = "verbose"
)

// Init points viper at the config file locations and environment, and
// seeds the defaults. Missing config files are fine; the tool runs on
// defaults and flags alone.
func Init(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("log-analyzer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("LOG_ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return err
		}
		// default locations are optional
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutDir, "output")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyVerbose, false)
}
