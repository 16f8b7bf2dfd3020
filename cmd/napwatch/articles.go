package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/napwatch/internal/dashboard"
	"github.com/IshaanNene/napwatch/internal/storage"
	"github.com/IshaanNene/napwatch/internal/types"
)

var (
	asJSON      bool
	showSummary bool
	topN        int
)

// articlesCmd creates the "articles" subcommand for reading the dataset.
func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List the current dataset",
		Args:  cobra.NoArgs,
		RunE:  runArticles,
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&showSummary, "summary", false, "print author, area and person counts")
	cmd.Flags().IntVarP(&topN, "top", "n", 10, "rows per summary table (0 = all)")

	return cmd
}

func runArticles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	timeout := cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	records, err := store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case showSummary:
		renderSummary(dashboard.Summarize(records), topN)
	default:
		renderRecords(records)
	}
	return nil
}

func renderRecords(records []types.ArticleRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Author", "Areas", "Persons", "Captured"})

	for i, r := range records {
		t.AppendRow(table.Row{
			i + 1,
			truncate(r.Title, 60),
			r.Author,
			strings.Join(r.Locations, ", "),
			strings.Join(r.Persons, ", "),
			r.CapturedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d articles", len(records))})
	t.Render()
}

func renderSummary(s dashboard.Summary, n int) {
	fmt.Printf("%d articles\n\n", s.Articles)
	for _, section := range []struct {
		title  string
		counts []dashboard.Count
	}{
		{"Author", s.Authors},
		{"Area", s.Areas},
		{"Person", s.Persons},
	} {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{section.title, "Articles"})
		for _, c := range dashboard.Top(section.counts, n) {
			t.AppendRow(table.Row{c.Name, c.Count})
		}
		t.Render()
		fmt.Println()
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
