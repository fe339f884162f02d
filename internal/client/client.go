// Package client calls a running satujam gateway over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sena168/satujam/internal/gateway"
	"github.com/sena168/satujam/internal/image"
)

const GeneratePath = "/api/generate"

// maxResponseSize bounds the JSON body read from the gateway.
const maxResponseSize = 64 << 20

// APIError is a non-2xx answer from the gateway. Message is the body's error
// field when present.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	return e.Message
}

// UnreachableError means the request never produced an HTTP response.
type UnreachableError struct {
	Path string
	Err  error
}

func (e *UnreachableError) Error() string {
	return "Failed to reach " + e.Path + "."
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

type Config struct {
	BaseURL    string
	TimeoutSec int
	HTTPClient *http.Client
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
		if cfg.TimeoutSec > 0 {
			httpClient.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
		}
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + GeneratePath,
		httpClient: httpClient,
	}, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	ID      string `json:"id"`
	Image   string `json:"image"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Generate posts the prompt and decodes the returned data URI.
func (c *Client) Generate(ctx context.Context, prompt string) (*gateway.Result, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Path: GeneratePath, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &UnreachableError{Path: GeneratePath, Err: err}
	}

	var decoded generateResponse
	decodeErr := json.Unmarshal(respBody, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Details: decoded.Details}
		if decodeErr == nil && decoded.Error != "" {
			apiErr.Message = decoded.Error
		} else {
			apiErr.Message = fmt.Sprintf("Error from API (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if decoded.ID == "" {
		return nil, fmt.Errorf("gateway response has no id")
	}

	mimeType, data, err := image.ParseDataURI(decoded.Image)
	if err != nil {
		return nil, fmt.Errorf("gateway response image: %w", err)
	}

	return &gateway.Result{ID: decoded.ID, Image: data, MIMEType: mimeType}, nil
}
