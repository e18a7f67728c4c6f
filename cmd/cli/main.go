package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitenav/internal/config"
	"sitenav/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sitenav",
	Short: "Drive partial-page navigation of a site from the command line",
	Long: `sitenav loads a page the way the site's navigation script does, then
follows internal links by swapping only the content region, keeping the
head, body identity and session history in step. Walks are scripted and
reported as NDJSON.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "sitenav.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// loadConfig reads and validates the configuration and builds the logger.
// Logs go to stderr so stdout stays pure NDJSON.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger.New(os.Stderr, cfg.LogLevel), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
