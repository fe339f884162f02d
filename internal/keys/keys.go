// Package keys keeps provider API keys in keys.yaml, next to config.yaml in
// the satujam config directory.
package keys

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigDir overrides the config directory.
const EnvConfigDir = "SATUJAM_CONFIG_DIR"

const fileName = "keys.yaml"

// ErrNoKey is returned when deleting a provider that has no stored key.
var ErrNoKey = errors.New("no key stored")

type Store struct {
	dir string
}

type document struct {
	Providers map[string]string `yaml:"providers"`
}

func NewStore() (*Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(dir), nil
}

func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// ConfigDir is $SATUJAM_CONFIG_DIR when set, else satujam under the
// platform's user config directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "satujam"), nil
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

func (s *Store) read() (*document, error) {
	doc := &document{Providers: map[string]string{}}

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	if doc.Providers == nil {
		doc.Providers = map[string]string{}
	}
	return doc, nil
}

// write replaces the file through a rename.
func (s *Store) write(doc *document) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}

func (s *Store) Set(provider, key string) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Providers[provider] = key
	return s.write(doc)
}

// Get returns "" without error when nothing is stored for provider.
func (s *Store) Get(provider string) (string, error) {
	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return doc.Providers[provider], nil
}

func (s *Store) Delete(provider string) error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Providers[provider]; !ok {
		return fmt.Errorf("%w for %s", ErrNoKey, provider)
	}
	delete(doc.Providers, provider)
	return s.write(doc)
}

// List returns the providers with a stored key, sorted.
func (s *Store) List() ([]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(doc.Providers)), nil
}

// MaskKey keeps the first and last four characters of keys long enough to
// still hide something.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// EnvVar names the environment variable holding a provider's key.
func EnvVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// Resolve picks the key for provider from the explicit value, then the store,
// then the environment. source describes where it came from.
func Resolve(explicit, provider string) (key, source string, err error) {
	if explicit != "" {
		return explicit, "command-line flag", nil
	}

	if store, err := NewStore(); err == nil {
		if stored, err := store.Get(provider); err == nil && stored != "" {
			return stored, "stored key (" + store.Path() + ")", nil
		}
	}

	envVar := EnvVar(provider)
	if v := os.Getenv(envVar); v != "" {
		return v, "environment variable (" + envVar + ")", nil
	}

	return "", "", fmt.Errorf("API key required: run 'satujam keys set %s' or set %s", provider, envVar)
}
