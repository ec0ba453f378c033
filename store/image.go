package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageFileStore holds contact image files. Contacts keep the returned URI
// in ImageURL instead of carrying the image bytes.
// Implementations are in store/image/s3, store/image/gcs and store/memory.
type ImageFileStore interface {
	// Upload stores content and returns a URI for later retrieval.
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (uri string, err error)

	// Load returns a reader for the image content.
	// Caller is responsible for closing the reader.
	Load(ctx context.Context, uri string) (io.ReadCloser, error)

	// Delete removes the image file from storage.
	Delete(ctx context.Context, uri string) error
}

// ObjectKey returns a unique object key under prefix for filename. Keys are
// partitioned by upload date.
func ObjectKey(prefix, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "image"
	}
	day := time.Now().UTC().Format("2006/01/02")
	return path.Join(prefix, day, uuid.New().String(), name)
}

// ParseObjectURI splits scheme://bucket/key into bucket and key.
func ParseObjectURI(scheme, uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not a %s uri", ErrInvalidURI, uri, scheme)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q has no object key", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}
