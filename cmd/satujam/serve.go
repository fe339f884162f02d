package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/web"
)

var flagAddr string

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and the browser gallery",
		Long: `Serve POST /api/generate and the browser gallery at /.

The gateway makes exactly one upstream call per request and answers with the
image as a data URI, or with a JSON error:
  400 invalid prompt, 502 upstream error (with details), 500 anything else.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, app)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", web.DefaultAddr, "listen address")
	addGenerationFlags(cmd, false)

	return cmd
}

func runServe(ctx context.Context, app *App) error {
	cfg := app.config()

	gw, closeJournal, err := app.newGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	srv, err := web.NewServer(cfg.Addr, gw, app.log(), web.Options{EndpointLabel: endpointLabel(cfg)})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	app.log().Info("gateway ready",
		"provider", gw.ProviderName(),
		"model", cfg.Model,
		"journal", cfg.Journal != "",
	)
	return srv.ListenAndServe(ctx)
}
