package gallery

import (
	"errors"
	"fmt"
	"os"
)

// ErrReleased is returned by any use of a handle after Release.
var ErrReleased = errors.New("handle already released")

// Handle owns the decoded bytes of one generated image. Release frees the
// underlying resource; it succeeds once and returns ErrReleased afterwards.
type Handle interface {
	Bytes() ([]byte, error)
	Size() int
	Release() error
	Released() bool
}

// HandleStore creates handles from raw image bytes.
type HandleStore interface {
	Create(data []byte) (Handle, error)
}

// MemoryStore keeps image bytes on the heap.
type MemoryStore struct{}

func (MemoryStore) Create(data []byte) (Handle, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("create handle: %w", errEmptyImage)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &memoryHandle{data: buf}, nil
}

type memoryHandle struct {
	data     []byte
	released bool
}

func (h *memoryHandle) Bytes() ([]byte, error) {
	if h.released {
		return nil, ErrReleased
	}
	return h.data, nil
}

func (h *memoryHandle) Size() int {
	return len(h.data)
}

func (h *memoryHandle) Release() error {
	if h.released {
		return ErrReleased
	}
	h.released = true
	h.data = nil
	return nil
}

func (h *memoryHandle) Released() bool {
	return h.released
}

// FileStore spills image bytes to temporary files under Dir, which keeps the
// heap small for long sessions. Released handles delete their file.
type FileStore struct {
	Dir string
}

func (s FileStore) Create(data []byte) (Handle, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("create handle: %w", errEmptyImage)
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create handle directory: %w", err)
		}
	}

	f, err := os.CreateTemp(s.Dir, "satujam-*.img")
	if err != nil {
		return nil, fmt.Errorf("failed to create handle file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write handle file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close handle file: %w", err)
	}
	return &fileHandle{path: f.Name(), size: len(data)}, nil
}

type fileHandle struct {
	path     string
	size     int
	released bool
}

func (h *fileHandle) Bytes() ([]byte, error) {
	if h.released {
		return nil, ErrReleased
	}
	return os.ReadFile(h.path)
}

func (h *fileHandle) Size() int {
	return h.size
}

func (h *fileHandle) Path() string {
	return h.path
}

func (h *fileHandle) Release() error {
	if h.released {
		return ErrReleased
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove handle file: %w", err)
	}
	return nil
}

func (h *fileHandle) Released() bool {
	return h.released
}
