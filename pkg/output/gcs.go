package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// GCSRepository uploads books to a Google Cloud Storage bucket.
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type GCSRepository struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSRepository creates a GCSRepository for a target such as
// gs://my-bucket/books.
func NewGCSRepository(ctx context.Context, target string) (*GCSRepository, error) {
	bucket, prefix, err := ParseGCSURI(target)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Close releases the storage client.
func (r *GCSRepository) Close() error {
	return r.client.Close()
}

// Save uploads data as {prefix}/{base of name}.
func (r *GCSRepository) Save(ctx context.Context, name string, data []byte) ([]string, error) {
	objectName := ObjectName(r.prefix, name)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := r.client.Bucket(r.bucket).Object(objectName).NewWriter(ctx)
	if strings.HasSuffix(objectName, ".gz") {
		w.ContentType = "application/gzip"
	} else {
		w.ContentType = "application/xml"
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("copy %s to GCS writer: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload of %s: %w", objectName, err)
	}

	return []string{"gs://" + r.bucket + "/" + objectName}, nil
}

// ParseGCSURI splits gs://bucket/prefix into its bucket and object prefix.
// The prefix may be empty.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return parts[0], prefix, nil
}

// ObjectName returns the object name for a local file uploaded under prefix.
// e.g., ("books", "out/money.gnucash") → "books/money.gnucash"
func ObjectName(prefix, name string) string {
	return path.Join(prefix, path.Base(name))
}
