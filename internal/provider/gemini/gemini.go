// Package gemini generates images through the Gemini API using the official
// Go SDK (google.golang.org/genai).
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/pkg/models"
)

type Provider struct {
	client   *genai.Client
	registry *models.ModelRegistry
	verbose  bool
	logger   *slog.Logger
}

func New(ctx context.Context, cfg *provider.Config, registry *models.ModelRegistry) (*Provider, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		client:   client,
		registry: registry,
		verbose:  cfg.Verbose,
		logger:   cfg.Log(),
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderGemini
}

func (p *Provider) SupportsModel(model string) bool {
	cap, ok := p.registry.Get(model)
	if !ok {
		return false
	}
	return cap.Provider == models.ProviderGemini
}

func (p *Provider) ListModels() []string {
	return p.registry.ListByProvider(models.ProviderGemini)
}

func (p *Provider) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	apiModel, err := p.resolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: req.Prompt},
			},
		},
	}
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, apiModel, contents, genConfig)
	if err != nil {
		return nil, translateError(err)
	}

	if p.verbose {
		p.logger.Info("upstream response",
			"provider", p.Name(),
			"model", apiModel,
			"elapsed", time.Since(start),
		)
	}

	return parseResult(result)
}

func (p *Provider) resolveModel(name string) (string, error) {
	if name == "" {
		def, ok := p.registry.DefaultModel(models.ProviderGemini)
		if !ok {
			return "", fmt.Errorf("%w: no gemini model registered", provider.ErrModelNotSupported)
		}
		name = def
	}

	cap, ok := p.registry.Get(name)
	if !ok || cap.Provider != models.ProviderGemini {
		return "", fmt.Errorf("%w: %s", provider.ErrModelNotSupported, name)
	}
	if cap.APIName != "" {
		return cap.APIName, nil
	}
	return cap.Name, nil
}

// translateError maps SDK API errors to StatusError and everything else to a
// transport failure.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &provider.StatusError{
			Provider:   models.ProviderGemini,
			StatusCode: apiErr.Code,
			Body:       provider.Excerpt(apiErr.Message, provider.MaxDetailsLength),
		}
	}
	return fmt.Errorf("%w: %w", provider.ErrTransport, err)
}

func parseResult(result *genai.GenerateContentResponse) (*models.Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", models.ErrNoImageData)
	}

	resp := &models.Response{}
	index := 0
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" && !part.Thought {
				resp.Text += part.Text
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				resp.Images = append(resp.Images, models.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
					Index:    index,
				})
				index++
			}
		}
	}

	if len(resp.Images) == 0 {
		return nil, fmt.Errorf("%w: model answered without an image", models.ErrNoImageData)
	}
	return resp, nil
}
