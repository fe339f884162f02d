package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/display"
	"github.com/sena168/satujam/internal/gallery"
	"github.com/sena168/satujam/internal/repl"
	"github.com/sena168/satujam/internal/tui"
)

func addGalleryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDownloadDir, "download-dir", "", "directory for saved <id>.png files")
	cmd.Flags().StringVar(&flagHandles, "handles", "", "where gallery images are held (memory, file)")
	addGenerationFlags(cmd, true)
}

func newReplCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repl",
		Aliases: []string{"interactive", "i"},
		Short:   "Line-oriented gallery session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runRepl(ctx, app)
		},
	}
	addGalleryFlags(cmd)
	return cmd
}

func runRepl(ctx context.Context, app *App) error {
	cfg := app.config()

	gen, closeGen, err := app.newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	var displayer *display.Displayer
	if display.Supported(app.Out) {
		displayer = app.NewDisplayer(app.Out).WithColumns(60)
	}

	r := repl.New(&repl.Config{
		In:        app.In,
		Out:       app.Out,
		Err:       app.Err,
		Session:   gallery.NewSession(app.newManager(cfg), endpointLabel(cfg)),
		Generator: gen,
		Displayer: displayer,
	})
	return r.Run(ctx)
}

func newTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Full-screen gallery with mouse support",
		Long: `Open the full-screen gallery. Type a prompt and press Enter to generate.
Right-click (or Tab) on a history entry to save or delete it; click anywhere
else to close the menu.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), app)
		},
	}
	addGalleryFlags(cmd)
	return cmd
}

func runTUI(ctx context.Context, app *App) error {
	cfg := app.config()

	gen, closeGen, err := app.newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	mgr := app.newManager(cfg)
	defer mgr.Teardown()

	session := gallery.NewSession(mgr, endpointLabel(cfg))
	model := tui.NewModel(ctx, session, gen, tui.Options{Endpoint: endpointLabel(cfg)})
	if _, err := app.RunProgram(model); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
