package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/display"
	"github.com/sena168/satujam/internal/image"
	"github.com/sena168/satujam/internal/security"
)

var (
	flagOutput      string
	flagShow        bool
	flagDownloadDir string
)

func newGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate <prompt>",
		Aliases: []string{"gen"},
		Short:   "Generate one image and save it",
		Long: `Generate one image from a prompt and save it as <id>.png in the download
directory, or to the path given with --output.

Examples:
  satujam generate "a red cube"
  satujam generate -o cube.png --show "a red cube"
  satujam generate --gateway-url http://localhost:8080 "a red cube"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runGenerate(ctx, app, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file; the image type's extension is added when missing (default: <download-dir>/<id>.png)")
	cmd.Flags().StringVar(&flagDownloadDir, "download-dir", "", "directory for <id>.png files")
	cmd.Flags().BoolVarP(&flagShow, "show", "S", false, "preview the image in kitty-compatible terminals")
	addGenerationFlags(cmd, true)

	return cmd
}

func runGenerate(ctx context.Context, app *App, prompt string) error {
	cfg := app.config()

	if flagOutput != "" {
		if err := security.ValidateSavePath(flagOutput); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}

	gen, closeGen, err := app.newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	prompt = strings.TrimSpace(prompt)
	fmt.Fprintf(app.Out, "Calling %s endpoint…\n", endpointLabel(cfg))

	res, err := gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	saver := app.NewSaver(cfg.DownloadDir)
	path := flagOutput
	if path != "" {
		path = image.WithExtension(path, res.MIMEType)
		err = saver.Save(res.Image, path)
	} else {
		path, err = saver.Download(res.ID, res.Image)
	}
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	fmt.Fprintf(app.Out, "Saved: %s (%s)\n", path, humanize.Bytes(uint64(len(res.Image))))
	fmt.Fprintf(app.Out, "UUID: %s\n", res.ID)

	if flagShow {
		if !display.Supported(app.Out) {
			fmt.Fprintln(app.Err, "Warning: terminal does not support inline images")
		} else if err := app.NewDisplayer(app.Out).Display(res.Image); err != nil {
			fmt.Fprintf(app.Err, "Warning: failed to display: %v\n", err)
		}
	}

	fmt.Fprintln(app.Out, "Done.")
	return nil
}
