// Package storage abstracts the object store media uploads land in. Two
// implementations: Supabase Storage (production) and a local directory
// (development and tests).
package storage

import "context"

// ObjectStore writes immutable media objects and resolves their public URLs.
//
// Put must be non-overwriting: writing a key that already exists is an
// error, never a silent replace. Keys are generated by the upload gateway
// (UUID-based), so collisions indicate a bug rather than a user action.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PublicURL(key string) (string, error)
}
