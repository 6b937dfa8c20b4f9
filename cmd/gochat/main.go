// Package main provides the gochat CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/everydev1618/gochat"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gochat",
	Short:         "Scripted conversational workflows",
	Long:          "gochat runs conversation scripts: named steps, branching on what the user says, store lookups and LLM replies.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $GOCHAT_HOME/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(runCmd, validateCmd, serveCmd, initCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gochat %s (%s)\n", version, commit)
	},
}

// loadConfig reads the config file, applies environment overrides and the
// logging flags, and installs the logger. defaultLevel applies when neither
// the flag nor GOCHAT_LOG_LEVEL set a level.
func loadConfig(defaultLevel string) (*chat.Config, *slog.Logger, error) {
	path := configPath
	if path == "" {
		path = chat.Home() + "/config.yaml"
	}
	cfg, err := chat.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if defaultLevel != "" {
		cfg.Log.Level = defaultLevel
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger := chat.SetupLogger(os.Stderr, cfg.Log)
	return cfg, logger, nil
}
