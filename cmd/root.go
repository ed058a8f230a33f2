package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/waskita-api/pkg/config"
	"github.com/killallgit/waskita-api/pkg/logger"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "waskita-api",
	Short: "Waskita social media ingestion API",
	Long: `Waskita API - social media scraping and radicalism classification pipeline

Posts are collected from Twitter/X, Facebook, Instagram and TikTok through a hosted
scraping service, or uploaded as CSV and Excel files. Every record is cleaned,
deduplicated and classified as radikal or non-radikal by Naive Bayes models over
word2vec document vectors.

Features:
  • Asynchronous scrape jobs with progress tracking and cancellation
  • Column mapping for staged scrape results
  • CSV, XLSX and XLS uploads with column detection
  • Cleaning with exact duplicate detection
  • Multi-model classification with manual corrections`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error), overrides config")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig initializes configuration for commands that need it
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger; flags win over the logging config section
func newLogger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, error) {
	lc := logger.Config{Format: "console"}
	if cfg != nil {
		lc.Level = cfg.Logging.Level
		lc.Format = cfg.Logging.Format
		lc.Development = cfg.Environment == "development"
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		lc.Level = level
	}
	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		lc.Format = "json"
		lc.Development = false
	}
	return logger.New(lc)
}
