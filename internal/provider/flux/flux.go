// Package flux talks to a hosted FLUX.1 [schnell] endpoint that answers a
// GET with the prompt in the query string by returning raw image bytes.
package flux

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/pkg/models"
)

const DefaultBaseURL = "https://thedevs-org--flux-schnell-api-fluxapi-generate.modal.run/"

type Provider struct {
	baseURL    string
	httpClient *http.Client
	registry   *models.ModelRegistry
	verbose    bool
	logger     *slog.Logger
}

// New builds a provider. No client timeout is set unless cfg.TimeoutSec > 0.
func New(cfg *provider.Config, registry *models.ModelRegistry) (*Provider, error) {
	if cfg == nil {
		cfg = &provider.Config{}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	client := &http.Client{}
	if cfg.TimeoutSec > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Provider{
		baseURL:    baseURL,
		httpClient: client,
		registry:   registry,
		verbose:    cfg.Verbose,
		logger:     cfg.Log(),
	}, nil
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func (p *Provider) WithHTTPClient(c *http.Client) *Provider {
	p.httpClient = c
	return p
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderFlux
}

func (p *Provider) SupportsModel(model string) bool {
	cap, ok := p.registry.Get(model)
	if !ok {
		return false
	}
	return cap.Provider == models.ProviderFlux
}

func (p *Provider) ListModels() []string {
	return p.registry.ListByProvider(models.ProviderFlux)
}

func (p *Provider) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	if req.Model != "" && !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("%w: %s", provider.ErrModelNotSupported, req.Model)
	}

	target := p.requestURL(req.Prompt)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", provider.ErrTransport, err)
	}
	httpReq.Header.Set("Cache-Control", "no-store")
	httpReq.Header.Set("Accept", "image/*")

	p.logRequest(httpReq)

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", provider.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", provider.ErrTransport, err)
	}

	p.logResponse(resp, len(body), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.NewStatusError(p.Name(), resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, provider.NewStatusError(p.Name(), resp.StatusCode, []byte("empty image body"))
	}

	return &models.Response{
		Images: []models.GeneratedImage{{
			Data:     body,
			MIMEType: contentType(resp.Header.Get("Content-Type"), body),
		}},
	}, nil
}

// requestURL appends the prompt as a percent-encoded query value. Spaces
// become %20 rather than '+'.
func (p *Provider) requestURL(prompt string) string {
	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	return p.baseURL + sep + "prompt=" + EscapePrompt(prompt)
}

// EscapePrompt percent-encodes a prompt for use as a query value.
func EscapePrompt(prompt string) string {
	return strings.ReplaceAll(url.QueryEscape(prompt), "+", "%20")
}

func contentType(header string, body []byte) string {
	if strings.HasPrefix(header, "image/") {
		if i := strings.Index(header, ";"); i >= 0 {
			return strings.TrimSpace(header[:i])
		}
		return header
	}
	return http.DetectContentType(body)
}

func (p *Provider) logRequest(req *http.Request) {
	if !p.verbose {
		return
	}
	p.logger.Info("upstream request",
		"provider", p.Name(),
		"method", req.Method,
		"url", req.URL.Redacted(),
	)
}

func (p *Provider) logResponse(resp *http.Response, size int, elapsed time.Duration) {
	if !p.verbose {
		return
	}
	p.logger.Info("upstream response",
		"provider", p.Name(),
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", size,
		"elapsed", elapsed,
	)
}
