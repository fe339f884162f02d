// Package image writes generated image bytes to disk and converts them to
// and from data URIs. Nothing here touches the network.
package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sena168/satujam/internal/security"
	"github.com/sena168/satujam/pkg/models"
)

var (
	ErrNoData         = errors.New("no image data available")
	ErrInvalidDataURI = errors.New("invalid data URI")
)

// Saver writes images into a download directory.
type Saver struct {
	dir string
}

// NewSaver saves into dir; an empty dir means the working directory.
func NewSaver(dir string) *Saver {
	if dir == "" {
		dir = "."
	}
	return &Saver{dir: dir}
}

func (s *Saver) Dir() string {
	return s.dir
}

// Save writes data to path, creating parent directories.
func (s *Saver) Save(data []byte, path string) error {
	if len(data) == 0 {
		return ErrNoData
	}
	if err := s.ensureDir(path); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Download writes data as <dir>/<id>.png and returns the path.
func (s *Saver) Download(id string, data []byte) (string, error) {
	path, err := security.DownloadPath(s.dir, id, models.FormatPNG.String())
	if err != nil {
		return "", err
	}
	if err := s.Save(data, path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Saver) ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// DataURI encodes data as data:<mime>;base64,<payload>.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = models.FormatPNG.MIMEType()
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI into its media type and bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return mimeType, data, nil
}

// FormatForMIME maps a content type to an output format, defaulting to PNG.
func FormatForMIME(mimeType string) models.OutputFormat {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return models.FormatJPEG
	case "image/webp":
		return models.FormatWebP
	default:
		return models.FormatPNG
	}
}

// WithExtension appends the extension for mimeType when path has none.
func WithExtension(path, mimeType string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + "." + FormatForMIME(mimeType).String()
}
