package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"dts-connector/internal/domain"
)

// Compile-time check: GCSStore implements the object store port.
var _ domain.ObjectStore = (*GCSStore)(nil)

// GCSStore implements domain.ObjectStore over Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a GCS-backed object store. Credentials come from the
// supplied client options, falling back to application defaults.
func NewGCSStore(ctx context.Context, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error { return s.client.Close() }

// BucketLocation returns the bucket's storage location, e.g. "US".
func (s *GCSStore) BucketLocation(ctx context.Context, bucket string) (string, error) {
	attrs, err := s.client.Bucket(bucket).Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("bucket attrs: %w", err)
	}
	return attrs.Location, nil
}

// Upload copies a local file to bucket/object and returns its gs:// URI.
// Without overwrite, an existing object fails the upload via a
// generation-zero precondition.
func (s *GCSStore) Upload(ctx context.Context, localPath, bucket, object string, overwrite bool) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	obj := s.client.Bucket(bucket).Object(object)
	if !overwrite {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}

	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		if !overwrite && isPreconditionFailed(err) {
			return "", fmt.Errorf("object gs://%s/%s already exists", bucket, object)
		}
		return "", fmt.Errorf("finalize object: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}

// isPreconditionFailed reports whether the storage API rejected the write
// because the DoesNotExist precondition did not hold.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
