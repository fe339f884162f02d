// Package security validates user-supplied paths and endpoint URLs.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrAbsolutePath  = errors.New("absolute paths are not allowed")
	ErrReservedName  = errors.New("reserved filename not allowed")
	ErrLeadingHyphen = errors.New("filename cannot start with hyphen")
	ErrEmptyName     = errors.New("filename is empty")

	windowsReservedNames = map[string]bool{
		"con": true, "prn": true, "aux": true, "nul": true,
		"com1": true, "com2": true, "com3": true, "com4": true,
		"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
		"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
		"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
	}
)

// ValidateSavePath accepts relative output paths that stay under the
// working directory.
func ValidateSavePath(path string) error {
	if path == "" {
		return ErrEmptyName
	}
	if filepath.IsAbs(path) {
		return ErrAbsolutePath
	}

	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(path, "..") {
		return ErrPathTraversal
	}

	base := filepath.Base(cleaned)
	if isReserved(base) {
		return ErrReservedName
	}
	if strings.HasPrefix(base, "-") {
		return ErrLeadingHyphen
	}
	return nil
}

// DownloadPath builds dir/<id>.<ext> with the name sanitized, and refuses
// any result that would land outside dir.
func DownloadPath(dir, id, ext string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrEmptyName
	}
	name := SanitizeFilename(id + "." + strings.TrimPrefix(ext, "."))
	full := filepath.Join(dir, name)

	rel, err := filepath.Rel(filepath.Clean(dir), full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve download path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return full, nil
}

func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "",
		"<", "", ">", "", "|", "", "\x00", "",
	)
	sanitized := replacer.Replace(name)
	sanitized = strings.TrimLeft(sanitized, ".-")
	sanitized = strings.TrimRight(sanitized, ". ")

	if isReserved(sanitized) {
		sanitized = sanitized + "_"
	}
	if sanitized == "" {
		sanitized = "file"
	}
	return sanitized
}

func isReserved(base string) bool {
	nameWithoutExt := strings.TrimSuffix(strings.ToLower(base), filepath.Ext(base))
	return windowsReservedNames[nameWithoutExt]
}
