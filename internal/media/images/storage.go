// Package images stores uploaded recipe images and derives their placeholders.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that are empty or escape the storage directory.
var ErrInvalidName = errors.New("invalid image name")

// Storage manages image files under a single directory.
// Files are named {uuid}{ext} so uploads never collide or reveal their origin.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates a Storage rooted at {basePath}/{subdir}, creating it if needed.
// Example: NewStorage("/data/images", "recipes") -> /data/images/recipes/.
func NewStorage(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save writes data under a fresh name with the given extension (".png")
// and returns that name.
func (s *Storage) Save(data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	name := uuid.NewString() + ext

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.basePath, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return name, nil
}

// Get returns the contents of a stored image.
func (s *Storage) Get(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists reports whether name is a stored image.
func (s *Storage) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a stored image. Removing a missing image is not an error.
func (s *Storage) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Hash returns the hex SHA-256 of a stored image, used as its ETag.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Path returns the filesystem path of name. Names containing path
// separators or dot segments are rejected.
func (s *Storage) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.basePath, name), nil
}
