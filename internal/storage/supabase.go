package storage

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore writes media objects to a Supabase Storage bucket. Uploads
// need the privileged service-role key; the bucket itself is public-read so
// GetPublicUrl resolves without signing.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStore creates a storage client against the given project URL
// and service-role key.
func NewSupabaseStore(projectURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		client: storage_go.NewClient(projectURL+"/storage/v1", serviceKey, nil),
		bucket: bucket,
	}
}

// Put uploads the object with upsert disabled, so the store rejects a
// duplicate key instead of overwriting.
func (s *SupabaseStore) Put(_ context.Context, key, contentType string, data []byte) error {
	upsert := false
	cacheControl := "3600"
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return fmt.Errorf("storage: uploading %s to bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(key string) (string, error) {
	res := s.client.GetPublicUrl(s.bucket, key)
	if res.SignedURL == "" {
		return "", fmt.Errorf("storage: no public URL for %s", key)
	}
	return res.SignedURL, nil
}
