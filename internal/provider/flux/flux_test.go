package flux

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sena168/satujam/internal/provider"
	"github.com/sena168/satujam/pkg/models"
)

func TestNew(t *testing.T) {
	registry := models.DefaultRegistry()

	tests := []struct {
		name    string
		cfg     *provider.Config
		wantURL string
	}{
		{"nil config", nil, DefaultBaseURL},
		{"empty config", &provider.Config{}, DefaultBaseURL},
		{"custom base URL", &provider.Config{BaseURL: "https://flux.example.com/gen"}, "https://flux.example.com/gen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, registry)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", p.baseURL, tt.wantURL)
			}
			if p.httpClient.Timeout != 0 {
				t.Errorf("default timeout = %v, want none", p.httpClient.Timeout)
			}
		})
	}
}

func TestNew_Timeout(t *testing.T) {
	p, err := New(&provider.Config{TimeoutSec: 30}, models.DefaultRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.httpClient.Timeout.Seconds() != 30 {
		t.Errorf("timeout = %v, want 30s", p.httpClient.Timeout)
	}
}

func TestProvider_SupportsModel(t *testing.T) {
	p, _ := New(nil, models.DefaultRegistry())

	tests := []struct {
		model string
		want  bool
	}{
		{"flux-schnell", true},
		{"gemini-2.5-flash-image", false},
		{"unknown-model", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := p.SupportsModel(tt.model); got != tt.want {
				t.Errorf("SupportsModel(%s) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}

	if got := p.ListModels(); len(got) != 1 || got[0] != "flux-schnell" {
		t.Errorf("ListModels() = %v", got)
	}
}

func TestProvider_Generate_Success(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("prompt"); got != "a red cube & more" {
			t.Errorf("prompt query = %q", got)
		}
		if !strings.Contains(r.URL.RawQuery, "a%20red%20cube%20%26%20more") {
			t.Errorf("raw query = %q, want %%20-encoded prompt", r.URL.RawQuery)
		}
		if r.Header.Get("Cache-Control") != "no-store" {
			t.Errorf("Cache-Control = %q, want no-store", r.Header.Get("Cache-Control"))
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer server.Close()

	p, err := New(&provider.Config{BaseURL: server.URL + "/"}, models.DefaultRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := p.Generate(context.Background(), models.NewRequest("a red cube & more"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	img, err := resp.First()
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if string(img.Data) != string(png) {
		t.Errorf("image data = %q, want %q", img.Data, png)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", img.MIMEType)
	}
}

func TestProvider_Generate_SingleAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("timeout"))
	}))
	defer server.Close()

	p, _ := New(&provider.Config{BaseURL: server.URL}, models.DefaultRegistry())
	_, err := p.Generate(context.Background(), models.NewRequest("x"))

	var se *provider.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Generate() error = %v, want StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", se.StatusCode)
	}
	if se.Body != "timeout" {
		t.Errorf("Body = %q, want timeout", se.Body)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}
}

func TestProvider_Generate_LongErrorBodyTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("e", 1000)))
	}))
	defer server.Close()

	p, _ := New(&provider.Config{BaseURL: server.URL}, models.DefaultRegistry())
	_, err := p.Generate(context.Background(), models.NewRequest("x"))

	var se *provider.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Generate() error = %v, want StatusError", err)
	}
	if len(se.Body) != provider.MaxDetailsLength {
		t.Errorf("Body length = %d, want %d", len(se.Body), provider.MaxDetailsLength)
	}
}

func TestProvider_Generate_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, _ := New(&provider.Config{BaseURL: server.URL}, models.DefaultRegistry())
	_, err := p.Generate(context.Background(), models.NewRequest("x"))

	var se *provider.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Generate() error = %v, want StatusError", err)
	}
}

func TestProvider_Generate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p, _ := New(&provider.Config{BaseURL: url}, models.DefaultRegistry())
	_, err := p.Generate(context.Background(), models.NewRequest("x"))
	if !errors.Is(err, provider.ErrTransport) {
		t.Fatalf("Generate() error = %v, want ErrTransport", err)
	}
}

func TestProvider_Generate_UnsupportedModel(t *testing.T) {
	p, _ := New(nil, models.DefaultRegistry())
	req := models.NewRequest("x")
	req.Model = "gemini-2.5-flash-image"

	_, err := p.Generate(context.Background(), req)
	if !errors.Is(err, provider.ErrModelNotSupported) {
		t.Fatalf("Generate() error = %v, want ErrModelNotSupported", err)
	}
}

func TestRequestURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		prompt string
		want   string
	}{
		{"trailing slash", "https://h/", "a b", "https://h/?prompt=a%20b"},
		{"existing query", "https://h/gen?size=1", "cat", "https://h/gen?size=1&prompt=cat"},
		{"reserved characters", "https://h/", "a/b?c=d", "https://h/?prompt=a%2Fb%3Fc%3Dd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{baseURL: tt.base}
			if got := p.requestURL(tt.prompt); got != tt.want {
				t.Errorf("requestURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("image/jpeg; charset=binary", nil); got != "image/jpeg" {
		t.Errorf("contentType() = %q, want image/jpeg", got)
	}
	if got := contentType("application/octet-stream", []byte("\x89PNG\r\n\x1a\n")); got != "image/png" {
		t.Errorf("contentType() = %q, want sniffed image/png", got)
	}
}
