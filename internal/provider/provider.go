package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/sena168/satujam/pkg/models"
)

// MaxDetailsLength bounds the upstream body excerpt carried by StatusError.
const MaxDetailsLength = 200

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrModelNotSupported = errors.New("model not supported by provider")
	ErrAPIKeyRequired    = errors.New("API key is required")
	ErrGenerationFailed  = errors.New("image generation failed")
	ErrTransport         = errors.New("transport failure")
)

type Provider interface {
	Name() models.ProviderType
	Generate(ctx context.Context, req *models.Request) (*models.Response, error)
	SupportsModel(model string) bool
	ListModels() []string
}

type Config struct {
	APIKey     string
	BaseURL    string
	TimeoutSec int
	Verbose    bool
	Logger     *slog.Logger
}

// Log returns the configured logger or slog.Default.
func (c *Config) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// StatusError reports a non-success answer from the upstream provider.
type StatusError struct {
	Provider   models.ProviderType
	StatusCode int
	Body       string
}

func NewStatusError(p models.ProviderType, code int, body []byte) *StatusError {
	return &StatusError{
		Provider:   p,
		StatusCode: code,
		Body:       Excerpt(string(body), MaxDetailsLength),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrGenerationFailed, e.Provider, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrGenerationFailed
}

// Excerpt returns at most n characters of s without splitting a rune.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Factory holds the providers a process has built and resolves models to
// them.
type Factory struct {
	registry  *models.ModelRegistry
	providers map[models.ProviderType]Provider
}

func NewFactory(registry *models.ModelRegistry) *Factory {
	return &Factory{
		registry:  registry,
		providers: make(map[models.ProviderType]Provider),
	}
}

func (f *Factory) Register(provider Provider) {
	f.providers[provider.Name()] = provider
}

func (f *Factory) Get(providerType models.ProviderType) (Provider, error) {
	provider, ok := f.providers[providerType]
	if !ok {
		return nil, f.notFound(providerType)
	}
	return provider, nil
}

func (f *Factory) GetForModel(model string) (Provider, error) {
	cap, ok := f.registry.Get(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotSupported, model)
	}

	provider, ok := f.providers[cap.Provider]
	if !ok {
		return nil, fmt.Errorf("%w (required by model %s)", f.notFound(cap.Provider), model)
	}

	return provider, nil
}

func (f *Factory) ListProviders() []models.ProviderType {
	types := make([]models.ProviderType, 0, len(f.providers))
	for t := range f.providers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (f *Factory) notFound(providerType models.ProviderType) error {
	return fmt.Errorf("%w: %s (configured: %v)", ErrProviderNotFound, providerType, f.ListProviders())
}
