// Package config loads satujam settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sena168/satujam/internal/keys"
	"github.com/sena168/satujam/internal/logging"
	"github.com/sena168/satujam/internal/security"
	"github.com/sena168/satujam/internal/web"
	"github.com/sena168/satujam/pkg/models"
)

const FileName = "config.yaml"

const (
	HandlesMemory = "memory"
	HandlesFile   = "file"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidHandles  = errors.New("invalid handle store")
	ErrInvalidTimeout  = errors.New("timeout must not be negative")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

type Config struct {
	Addr        string `yaml:"addr"`
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model,omitempty"`
	FluxURL     string `yaml:"flux_url,omitempty"`
	GatewayURL  string `yaml:"gateway_url,omitempty"`
	Journal     string `yaml:"journal,omitempty"`
	DownloadDir string `yaml:"download_dir"`
	Handles     string `yaml:"handles"`
	LogLevel    string `yaml:"log_level"`
	TimeoutSec  int    `yaml:"timeout_sec,omitempty"`
}

func Default() *Config {
	return &Config{
		Addr:        web.DefaultAddr,
		Provider:    string(models.ProviderFlux),
		DownloadDir: ".",
		Handles:     HandlesMemory,
		LogLevel:    "info",
	}
}

// DefaultPath is config.yaml inside the satujam config directory.
func DefaultPath() (string, error) {
	dir, err := keys.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !models.ProviderType(c.Provider).IsValid() {
		return fmt.Errorf("%w: %q (valid: %v)", ErrInvalidProvider, c.Provider, models.ValidProviders())
	}
	for name, raw := range map[string]string{"flux_url": c.FluxURL, "gateway_url": c.GatewayURL} {
		if raw == "" {
			continue
		}
		if err := security.ValidateEndpointURL(raw); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidURL, name, err)
		}
	}
	switch c.Handles {
	case HandlesMemory, HandlesFile:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandles, c.Handles)
	}
	if _, ok := logging.LookupLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.TimeoutSec < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// ProviderType returns the configured provider as a typed value.
func (c *Config) ProviderType() models.ProviderType {
	return models.ProviderType(c.Provider)
}

// Remote reports whether the clients talk to a running gateway over HTTP
// instead of calling the provider in-process.
func (c *Config) Remote() bool {
	return c.GatewayURL != ""
}

func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Save writes the config to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
