package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/journal"
)

var flagRecent int

// getJournalPath is a variable so tests can point stats at a temp database.
var getJournalPath = journal.DefaultPath

func newStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the generation journal",
		Long: `Summarize provider calls recorded by 'serve --journal' (or any command run
with a journal configured): totals, failures by kind and per-provider volume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), app)
		},
	}

	cmd.Flags().StringVar(&flagJournal, "journal", "", "journal file (default: ~/.satujam/journal.db)")
	cmd.Flags().IntVarP(&flagRecent, "recent", "n", 5, "number of recent calls to list")
	return cmd
}

func runStats(ctx context.Context, app *App) error {
	path := app.config().Journal
	if path == "" {
		p, err := getJournalPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(app.Out, "No journal at %s\n", path)
		fmt.Fprintln(app.Out, "Run 'satujam serve --journal <file>' to start recording.")
		return nil
	}

	store, err := journal.NewStoreWithPath(path)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Journal: %s\n\n", path)
	if summary.Total == 0 {
		fmt.Fprintln(app.Out, "No generations recorded.")
		return nil
	}

	fmt.Fprintf(app.Out, "Generations: %s (%s ok, %s failed)\n",
		humanize.Comma(int64(summary.Total)),
		humanize.Comma(int64(summary.Succeeded)),
		humanize.Comma(int64(summary.Failed)))
	fmt.Fprintf(app.Out, "Image data:  %s\n", humanize.Bytes(uint64(summary.ImageBytes)))
	fmt.Fprintf(app.Out, "Avg latency: %s\n", summary.AvgDuration.Round(time.Millisecond))

	kinds, err := store.CountByKind(ctx)
	if err != nil {
		return err
	}
	if len(kinds) > 0 {
		fmt.Fprintln(app.Out)
		fmt.Fprintln(app.Out, "Failures by kind:")
		for _, k := range kinds {
			fmt.Fprintf(app.Out, "  %-12s %d\n", k.Kind, k.Count)
		}
	}

	providers, err := store.ByProvider(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out)
	fmt.Fprintf(app.Out, "%-10s  %-8s  %s\n", "Provider", "Calls", "Images")
	fmt.Fprintln(app.Out, strings.Repeat("-", 32))
	for _, p := range providers {
		fmt.Fprintf(app.Out, "%-10s  %-8d  %s\n", p.Provider, p.Count, humanize.Bytes(uint64(p.ImageBytes)))
	}

	if flagRecent <= 0 {
		return nil
	}
	recent, err := store.Recent(ctx, flagRecent)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, "Recent:")
	for _, e := range recent {
		outcome := e.Status
		if e.ErrorKind != "" {
			outcome += " (" + e.ErrorKind + ")"
		}
		fmt.Fprintf(app.Out, "  %s  %-8s %-16s %s\n",
			humanize.Time(e.CreatedAt), e.Provider, outcome, e.ID)
	}
	return nil
}
