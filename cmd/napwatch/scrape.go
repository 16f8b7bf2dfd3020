package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/napwatch/internal/types"
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one refresh and exit",
		Long:  "Harvest the landing page once and replace the stored dataset.",
		Args:  cobra.NoArgs,
		RunE:  runScrape,
	}
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Run(ctx, types.TriggerManual)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	fmt.Printf("\n✅ Refresh complete in %s\n", result.Duration().Round(time.Millisecond))
	fmt.Printf("   Run:       %s\n", result.RunID)
	fmt.Printf("   Links:     %d discovered\n", result.LinksFound)
	fmt.Printf("   Records:   %d stored (%s)\n", result.Records, a.store.Name())
	if result.Records == 0 {
		fmt.Println("\n💡 No articles were found. Check site.link_selector or try --engine browser.")
	}
	return nil
}
