package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/premarket/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	envFiles    []string
	logLevel    string
	workers     int
	outputFile  string
	format      string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "premarket",
	Short:         "Rank premarket news catalysts for low-priced US stocks",
	Long:          `Collects recent headlines, scores their catalysts, filters symbols on price and exchange and reports the most likely premarket movers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Without a subcommand, run a single scan
	PersistentPreRunE: initConfig,
	RunE:              runScan,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	flags.StringArrayVar(&envFiles, "env-file", []string{".env"}, "KEY=VALUE file loaded before configuration (repeatable)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.IntVarP(&workers, "workers", "w", 0, "Concurrent per-symbol lookups (overrides config)")
	flags.StringVarP(&outputFile, "out", "o", "", "Write the report to this file instead of stdout")
	flags.StringVarP(&format, "format", "f", "", "Report format: text, json, markdown or html (overrides config)")

	rootCmd.AddCommand(scanCmd, scheduleCmd, versionCmd)
}

// initConfig runs the startup sequence (REQUIRED ORDER):
// 1. Load .env files
// 2. Load config (defaults -> file1 -> file2 -> ... -> env)
// 3. Apply CLI overrides (highest priority)
// 4. Validate
// 5. Initialize logger and print banner
func initConfig(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	if err := common.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("premarket.toml"); err == nil {
			configFiles = append(configFiles, "premarket.toml")
		} else if _, err := os.Stat("deployments/local/premarket.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/premarket.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		LogLevel: logLevel,
		Workers:  workers,
		Output:   outputFile,
		Format:   format,
	})

	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.SetupLogger(config)
	common.InstallCrashHandler(filepath.Dir(config.Logging.File))
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("timezone", config.Scan.Timezone).
		Str("window", config.Scan.Window).
		Int("workers", config.Scan.Workers).
		Str("format", config.Output.Format).
		Msg("Resolved configuration (sanitized)")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
