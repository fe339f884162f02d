// Package gateway turns a prompt into image bytes through a single provider
// call and classifies every failure into one of four kinds.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sena168/satujam/internal/journal"
	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/pkg/models"
)

// Result is a successful generation.
type Result struct {
	ID       string
	Image    []byte
	MIMEType string
}

// Generator is anything that can produce a Result from a prompt: the
// in-process Gateway or the HTTP client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// Recorder receives one entry per provider call.
type Recorder interface {
	Record(ctx context.Context, e *journal.Entry) error
}

type Config struct {
	Model    string
	Recorder Recorder
	Logger   *slog.Logger
	// NewID defaults to uuid.NewString.
	NewID func() string
}

type Gateway struct {
	provider provider.Provider
	model    string
	recorder Recorder
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

func New(p provider.Provider, cfg *Config) *Gateway {
	if cfg == nil {
		cfg = &Config{}
	}
	g := &Gateway{
		provider: p,
		model:    cfg.Model,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		newID:    cfg.NewID,
		now:      time.Now,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	return g
}

func (g *Gateway) ProviderName() models.ProviderType {
	return g.provider.Name()
}

// Generate validates the prompt and issues exactly one provider request.
// The prompt is forwarded as submitted; trimming is only used to reject
// blank input.
func (g *Gateway) Generate(ctx context.Context, prompt string) (*Result, error) {
	if _, err := models.NormalizePrompt(prompt); err != nil {
		return nil, newValidationError(err)
	}

	req := models.NewRequest(prompt)
	req.Model = g.model

	start := g.now()
	resp, err := g.callProvider(ctx, req)
	elapsed := g.now().Sub(start)

	entry := &journal.Entry{
		Provider:    g.provider.Name().String(),
		Model:       g.model,
		PromptChars: utf8.RuneCountInString(prompt),
		Duration:    elapsed,
		CreatedAt:   start,
	}

	var img *models.GeneratedImage
	if err == nil {
		img, err = resp.First()
	}
	if err != nil {
		gerr := g.classify(err)
		entry.ID = g.newID()
		entry.Status = journal.StatusError
		entry.ErrorKind = gerr.Kind.String()
		g.record(ctx, entry)
		g.logFailure(gerr, elapsed)
		return nil, gerr
	}

	result := &Result{
		ID:       g.newID(),
		Image:    img.Data,
		MIMEType: img.MIMEType,
	}
	if result.MIMEType == "" {
		result.MIMEType = models.FormatPNG.MIMEType()
	}

	entry.ID = result.ID
	entry.Status = journal.StatusOK
	entry.ImageBytes = len(result.Image)
	g.record(ctx, entry)

	g.logger.Info("generation complete",
		"id", result.ID,
		"provider", g.provider.Name(),
		"bytes", len(result.Image),
		"elapsed", elapsed,
	)
	return result, nil
}

// callProvider turns a provider panic into an error so the caller always
// gets a classified failure.
func (g *Gateway) callProvider(ctx context.Context, req *models.Request) (resp *models.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return g.provider.Generate(ctx, req)
}

func (g *Gateway) classify(err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:       UpstreamError,
			Message:    g.endpointLabel() + " endpoint error",
			Details:    provider.Excerpt(statusErr.Body, provider.MaxDetailsLength),
			StatusCode: statusErr.StatusCode,
			Err:        err,
		}
	}

	if errors.Is(err, models.ErrNoImageData) {
		return &Error{
			Kind:    UpstreamError,
			Message: g.endpointLabel() + " endpoint error",
			Details: provider.Excerpt(err.Error(), provider.MaxDetailsLength),
			Err:     err,
		}
	}

	if errors.Is(err, provider.ErrTransport) {
		return &Error{
			Kind:    TransportError,
			Message: "Failed to reach " + g.endpointLabel() + " endpoint",
			Err:     err,
		}
	}

	return newInternalError(err)
}

func (g *Gateway) endpointLabel() string {
	return strings.ToUpper(g.provider.Name().String())
}

func (g *Gateway) record(ctx context.Context, e *journal.Entry) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Record(ctx, e); err != nil {
		g.logger.Warn("failed to record generation", "id", e.ID, "error", err)
	}
}

func (g *Gateway) logFailure(gerr *Error, elapsed time.Duration) {
	attrs := []any{
		"kind", gerr.Kind,
		"provider", g.provider.Name(),
		"elapsed", elapsed,
		"error", gerr,
	}
	if gerr.Kind == InternalError {
		g.logger.Error("generation failed", attrs...)
		return
	}
	g.logger.Warn("generation failed", attrs...)
}
