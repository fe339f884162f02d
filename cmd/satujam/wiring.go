package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/client"
	"github.com/sena168/satujam/internal/config"
	"github.com/sena168/satujam/internal/gallery"
	"github.com/sena168/satujam/internal/gateway"
	"github.com/sena168/satujam/internal/journal"
	"github.com/sena168/satujam/internal/keys"
	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/internal/security"
	"github.com/sena168/satujam/pkg/models"
)

var (
	flagProvider   string
	flagModel      string
	flagFluxURL    string
	flagGatewayURL string
	flagJournal    string
	flagAPIKey     string
	flagTimeout    int
	flagHandles    string
)

// addGenerationFlags registers the flags shared by every command that can
// produce images.
func addGenerationFlags(cmd *cobra.Command, remote bool) {
	cmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "image provider (flux, gemini)")
	cmd.Flags().StringVarP(&flagModel, "model", "m", "", "model name (default: the provider's default)")
	cmd.Flags().StringVar(&flagFluxURL, "flux-url", "", "FLUX endpoint URL")
	cmd.Flags().StringVar(&flagJournal, "journal", "", "record every provider call in this sqlite file")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key for gemini (defaults to stored key or GEMINI_API_KEY)")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "upstream timeout in seconds (0 waits indefinitely)")
	if remote {
		cmd.Flags().StringVar(&flagGatewayURL, "gateway-url", "", "use a running satujam server instead of calling the provider")
	}
}

func applyGenerationFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = v
		}
	}
	set("provider", &cfg.Provider, flagProvider)
	set("model", &cfg.Model, flagModel)
	set("flux-url", &cfg.FluxURL, flagFluxURL)
	set("gateway-url", &cfg.GatewayURL, flagGatewayURL)
	set("journal", &cfg.Journal, flagJournal)
	set("handles", &cfg.Handles, flagHandles)
	set("addr", &cfg.Addr, flagAddr)
	set("download-dir", &cfg.DownloadDir, flagDownloadDir)
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		cfg.TimeoutSec = flagTimeout
	}
}

// newGateway builds the in-process gateway for cfg. The returned close
// function releases the journal, if one was opened.
func (app *App) newGateway(ctx context.Context, cfg *config.Config) (*gateway.Gateway, func() error, error) {
	providerType := cfg.ProviderType()
	pcfg := &provider.Config{
		TimeoutSec: cfg.TimeoutSec,
		Verbose:    flagVerbose,
		Logger:     app.log(),
	}

	switch providerType {
	case models.ProviderFlux:
		pcfg.BaseURL = cfg.FluxURL
		if cfg.FluxURL != "" && security.IsPrivateEndpoint(cfg.FluxURL) {
			app.log().Warn("FLUX endpoint is on a private network", "url", cfg.FluxURL)
		}
	case models.ProviderGemini:
		apiKey, source, err := keys.Resolve(flagAPIKey, string(models.ProviderGemini))
		if err != nil {
			return nil, nil, err
		}
		app.log().Debug("using API key", "provider", providerType, "source", source)
		pcfg.APIKey = apiKey
	}

	built, err := app.NewProvider(ctx, providerType, pcfg, app.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provider: %w", err)
	}
	factory := provider.NewFactory(app.Registry)
	factory.Register(built)

	var p provider.Provider
	if cfg.Model != "" {
		p, err = factory.GetForModel(cfg.Model)
	} else {
		p, err = factory.Get(providerType)
	}
	if err != nil {
		return nil, nil, err
	}

	gcfg := &gateway.Config{Model: cfg.Model, Logger: app.log()}
	closeFn := func() error { return nil }
	if cfg.Journal != "" {
		store, err := journal.NewStoreWithPath(cfg.Journal)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open journal: %w", err)
		}
		gcfg.Recorder = store
		closeFn = store.Close
	}

	return gateway.New(p, gcfg), closeFn, nil
}

// newGenerator returns the HTTP client when a gateway URL is configured and
// the in-process gateway otherwise.
func (app *App) newGenerator(ctx context.Context, cfg *config.Config) (gateway.Generator, func() error, error) {
	if cfg.Remote() {
		c, err := client.New(&client.Config{BaseURL: cfg.GatewayURL, TimeoutSec: cfg.TimeoutSec})
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	}
	return app.newGateway(ctx, cfg)
}

func (app *App) newManager(cfg *config.Config) *gallery.Manager {
	var store gallery.HandleStore = gallery.MemoryStore{}
	if cfg.Handles == config.HandlesFile {
		store = gallery.FileStore{Dir: os.TempDir()}
	}
	return gallery.NewManager(
		gallery.WithHandleStore(store),
		gallery.WithDownloader(app.NewSaver(cfg.DownloadDir)),
		gallery.WithLogger(app.log()),
	)
}

func endpointLabel(cfg *config.Config) string {
	return strings.ToUpper(cfg.Provider)
}
