package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/config"
	"github.com/sena168/satujam/internal/display"
	"github.com/sena168/satujam/internal/image"
	"github.com/sena168/satujam/internal/keys"
	"github.com/sena168/satujam/internal/logging"
	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/internal/provider/flux"
	"github.com/sena168/satujam/internal/provider/gemini"
	"github.com/sena168/satujam/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig   string
	flagLogLevel string
	flagVerbose  bool
)

type App struct {
	In           io.Reader
	Out          io.Writer
	Err          io.Writer
	Registry     *models.ModelRegistry
	GetEnv       func(string) string
	NewProvider  func(ctx context.Context, p models.ProviderType, cfg *provider.Config, registry *models.ModelRegistry) (provider.Provider, error)
	NewSaver     func(dir string) *image.Saver
	NewDisplayer func(out io.Writer) *display.Displayer
	NewKeyStore  func() (*keys.Store, error)
	// RunProgram runs the terminal UI until it exits.
	RunProgram func(m tea.Model) (tea.Model, error)

	cfg    *config.Config
	logger *slog.Logger
}

func DefaultApp() *App {
	return &App{
		In:           os.Stdin,
		Out:          os.Stdout,
		Err:          os.Stderr,
		Registry:     models.DefaultRegistry(),
		GetEnv:       os.Getenv,
		NewProvider:  newProvider,
		NewSaver:     image.NewSaver,
		NewDisplayer: display.New,
		NewKeyStore:  keys.NewStore,
		RunProgram: func(m tea.Model) (tea.Model, error) {
			return tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
		},
	}
}

func newProvider(ctx context.Context, p models.ProviderType, cfg *provider.Config, registry *models.ModelRegistry) (provider.Provider, error) {
	switch p {
	case models.ProviderFlux:
		return flux.New(cfg, registry)
	case models.ProviderGemini:
		return gemini.New(ctx, cfg, registry)
	default:
		return nil, fmt.Errorf("%w: %s", provider.ErrProviderNotFound, p)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "satujam",
		Short: "Prompt-to-image gateway with a session gallery",
		Long: `satujam turns text prompts into images through a hosted FLUX.1 [schnell]
endpoint (or Gemini) and keeps the last 30 results in a session gallery.

Examples:
  satujam serve --addr localhost:8080
  satujam generate "a red cube on a white table"
  satujam tui
  satujam repl --gateway-url http://localhost:8080`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: <config dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log upstream requests and responses")

	cmd.AddCommand(
		newServeCmd(app),
		newGenerateCmd(app),
		newReplCmd(app),
		newTUICmd(app),
		newKeysCmd(app),
		newStatsCmd(app),
		newConfigCmd(app),
	)

	return cmd
}

// loadConfig layers the config file and explicitly set flags over the
// defaults and builds the logger every command shares.
func (app *App) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	applyGenerationFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	app.cfg = cfg
	app.logger = logging.New(level, app.Err)
	return nil
}

func (app *App) config() *config.Config {
	if app.cfg == nil {
		app.cfg = config.Default()
	}
	return app.cfg
}

func (app *App) log() *slog.Logger {
	if app.logger == nil {
		app.logger = logging.Discard()
	}
	return app.logger
}
