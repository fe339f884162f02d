package models

import (
	"errors"
	"slices"
	"sort"
	"strings"
)

var (
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrUnknownModel  = errors.New("unknown model")
	ErrNoImageData   = errors.New("response contains no image data")
	ErrInvalidFormat = errors.New("invalid output format")
)

type ProviderType string

const (
	ProviderFlux   ProviderType = "flux"
	ProviderGemini ProviderType = "gemini"
)

func ValidProviders() []ProviderType {
	return []ProviderType{ProviderFlux, ProviderGemini}
}

func (p ProviderType) IsValid() bool {
	return slices.Contains(ValidProviders(), p)
}

func (p ProviderType) String() string {
	return string(p)
}

type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
	FormatWebP OutputFormat = "webp"
)

func (f OutputFormat) String() string {
	return string(f)
}

// MIMEType returns the content type for the format. Unknown formats map to PNG.
func (f OutputFormat) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// NormalizePrompt trims surrounding whitespace. A prompt is valid when the
// result is non-empty.
func NormalizePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrEmptyPrompt
	}
	return trimmed, nil
}

type Request struct {
	Prompt string
	Model  string
}

func NewRequest(prompt string) *Request {
	return &Request{Prompt: prompt}
}

type Response struct {
	Images []GeneratedImage
	Text   string
}

// First returns the first image carrying data.
func (r *Response) First() (*GeneratedImage, error) {
	if r == nil {
		return nil, ErrNoImageData
	}
	for i := range r.Images {
		if len(r.Images[i].Data) > 0 {
			return &r.Images[i], nil
		}
	}
	return nil, ErrNoImageData
}

type GeneratedImage struct {
	Data     []byte
	MIMEType string
	Index    int
}

type ModelCapabilities struct {
	Name        string
	Provider    ProviderType
	APIName     string
	Description string
}

type ModelRegistry struct {
	models map[string]*ModelCapabilities
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		models: make(map[string]*ModelCapabilities),
	}
}

func (r *ModelRegistry) Register(cap *ModelCapabilities) {
	r.models[cap.Name] = cap
}

func (r *ModelRegistry) Get(name string) (*ModelCapabilities, bool) {
	cap, ok := r.models[name]
	return cap, ok
}

func (r *ModelRegistry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ModelRegistry) ListByProvider(provider ProviderType) []string {
	var names []string
	for name, cap := range r.models {
		if cap.Provider == provider {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the first registered model for the provider in name order.
func (r *ModelRegistry) DefaultModel(provider ProviderType) (string, bool) {
	names := r.ListByProvider(provider)
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func DefaultRegistry() *ModelRegistry {
	r := NewModelRegistry()

	r.Register(&ModelCapabilities{
		Name:        "flux-schnell",
		Provider:    ProviderFlux,
		APIName:     "flux-schnell",
		Description: "FLUX.1 [schnell] hosted on Modal",
	})

	r.Register(&ModelCapabilities{
		Name:        "gemini-2.5-flash-image",
		Provider:    ProviderGemini,
		APIName:     "gemini-2.5-flash-image",
		Description: "Gemini 2.5 Flash Image",
	})

	r.Register(&ModelCapabilities{
		Name:        "gemini-3-pro-image",
		Provider:    ProviderGemini,
		APIName:     "gemini-3-pro-image-preview",
		Description: "Gemini 3 Pro Image (preview)",
	})

	return r
}
