package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/napwatch/internal/config"
)

var (
	cfgFile     string
	verbose     bool
	port        int
	engineType  string
	storageType string
	outputPath  string
	interval    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "napwatch",
		Short: "napwatch: geo.tv news harvester",
		Long: `napwatch harvests the latest geo.tv articles, tags them with the people
and Pakistani regions they mention, and serves the dataset over HTTP.

Features:
  • Headless Chromium or static HTML page engines
  • Person recognition via prose or an LLM
  • Atomic snapshot replacement in MongoDB or a JSON file
  • Interval refresh with coalesced manual triggers
  • Dashboard and Prometheus metrics`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&engineType, "engine", "", "page engine: browser, static")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "storage backend: mongodb, json, memory")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "JSON dataset path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(articlesCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := applyCLIOverrides(cfg); err != nil {
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("napwatch %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Landing URL:       %s\n", cfg.Site.LandingURL)
			fmt.Printf("  Link Selector:     %s\n", cfg.Site.LinkSelector)
			fmt.Printf("  Settle:            %s landing, %s article\n", cfg.Site.LandingSettle, cfg.Site.ArticleSettle)
			fmt.Printf("  Nav Timeout:       %s\n", cfg.Site.NavigationTimeout)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Type:              %s\n", cfg.Browser.Type)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Browser.UserAgents))
			fmt.Printf("\nNLP:\n")
			fmt.Printf("  Provider:          %s\n", cfg.NLP.Provider)
			fmt.Printf("  Max Persons:       %d\n", cfg.NLP.MaxPersons)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			if cfg.Storage.Type == "mongodb" {
				fmt.Printf("  Collection:        %s.%s\n", cfg.Storage.Database, cfg.Storage.Collection)
			}
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nSchedule:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Schedule.Enabled)
			fmt.Printf("  Interval:          %s\n", cfg.Schedule.Interval)
			fmt.Printf("\nServer:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("\nNotify:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Notify.Enabled)
			fmt.Printf("  Topic:             %s\n", cfg.Notify.Topic)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Path:              %s\n", cfg.Metrics.Path)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) error {
	if port > 0 {
		cfg.Server.Port = port
	}
	if engineType != "" {
		cfg.Browser.Type = strings.ToLower(engineType)
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid --interval %q: %w", interval, err)
		}
		cfg.Schedule.Interval = d
	}
	return nil
}
