// Package blob provides the Google Cloud Storage backed blob store used
// for archived documents and cover images.
package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// signedURLTTL is how long archived document links stay valid.
// V4 signed URLs cap out at seven days.
const signedURLTTL = 7 * 24 * time.Hour

// GCSStore stores blobs in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for the given bucket. When credentialsJSON is
// empty, Application Default Credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	var client *storage.Client
	var err error
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Store writes one object, overwriting any previous version.
func (s *GCSStore) Store(ctx context.Context, objectPath string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", objectPath, err)
	}

	return nil
}

// Upload is Store under the name the catalog expects for cover images.
func (s *GCSStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	return s.Store(ctx, objectPath, data, contentType)
}

// SignedURL returns a time-limited read URL for an archived object.
// Signing uses the client's own credentials.
func (s *GCSStore) SignedURL(ctx context.Context, objectPath string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(signedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", objectPath, err)
	}

	return url, nil
}

// PublicURL returns the canonical public URL of an object. The object is
// only reachable through it when the bucket allows public reads.
func (s *GCSStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath)
}
