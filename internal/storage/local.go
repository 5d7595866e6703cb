package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media objects as files under a directory, served by the
// HTTP server at {baseURL}/media/{key}. It is the development and test
// backend; production uses Supabase Storage.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the media directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating media directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory files are written to, for the server's static
// file route.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes the object with O_EXCL, so an existing key is an error rather
// than an overwrite.
func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) error {
	// Keys are UUID-based and never client-supplied, but refuse separators
	// anyway so a bad caller cannot escape the media directory.
	if key == "" || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return fmt.Errorf("storage: invalid object key %q", key)
	}

	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: object %s already exists", key)
		}
		return fmt.Errorf("storage: creating object %s: %w", key, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("storage: writing object %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: closing object %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("storage: base URL is not configured")
	}
	return s.baseURL + "/media/" + key, nil
}
