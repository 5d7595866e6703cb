// Package upload accepts raw media files, normalizes formats the browser
// cannot display (HEIC becomes JPEG), and writes them to an object store
// under collision-free keys.
package upload

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gen2brain/heic"
	"github.com/google/uuid"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/storage"
)

// Result describes a successfully stored file.
type Result struct {
	// PublicURL is a browser-fetchable address for the stored object.
	PublicURL string `json:"publicUrl"`
	// Key is the object store key the file was written under.
	Key string `json:"-"`
}

// Gateway is the single entry point for media uploads.
type Gateway struct {
	store  storage.ObjectStore
	logger *slog.Logger

	// decodeHEIC is swapped out in tests; a real payload needs the wasm
	// libheif decoder.
	decodeHEIC func(r io.Reader) (image.Image, error)
}

func NewGateway(store storage.ObjectStore, logger *slog.Logger) *Gateway {
	return &Gateway{store: store, logger: logger, decodeHEIC: heic.Decode}
}

// Upload stores one file and returns its public URL.
//
// HEIC/HEIF input is converted to JPEG before anything is written; a
// conversion failure aborts the upload with a validation error and the store
// is never touched. Each upload gets a fresh random key, so two uploads of
// the same file never collide and never overwrite each other.
//
// If the write succeeds but the public URL cannot be resolved, the stored
// object is left in place and a dependency error is returned.
func (g *Gateway) Upload(ctx context.Context, filename, contentType string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("file", "no file provided")
	}

	if isHEIC(filename, contentType) {
		converted, err := g.convertToJPEG(data)
		if err != nil {
			return nil, apperror.ValidationFailed("file", fmt.Sprintf("failed to convert HEIC image: %v", err))
		}
		data = converted
		filename = jpegName(filename)
		contentType = "image/jpeg"
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(filename))

	if err := g.store.Put(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("storing upload %q: %w", key, err)
	}

	url, err := g.store.PublicURL(key)
	if err != nil {
		// The object exists but cannot be linked. Surface that rather
		// than pretending the upload failed outright.
		g.logger.Error("stored upload has no resolvable public URL",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, apperror.Dependency(fmt.Sprintf("file %q was stored but its public URL could not be resolved", filename))
	}

	g.logger.Info("file uploaded",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.Int("size_bytes", len(data)))

	return &Result{PublicURL: url, Key: key}, nil
}
