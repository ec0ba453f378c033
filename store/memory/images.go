package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/groupware/store"
)

// ImageScheme is the URI scheme of images held by Images.
const ImageScheme = "mem"

// Images implements store.ImageFileStore in memory.
type Images struct {
	mu      sync.RWMutex
	objects map[string][]byte // key -> content
	types   map[string]string // key -> content type
	loads   atomic.Int64
}

var _ store.ImageFileStore = (*Images)(nil)

// NewImages creates an empty in-memory image store.
func NewImages() *Images {
	return &Images{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Upload stores content and returns a mem://images/... URI.
func (s *Images) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	key := store.ObjectKey("images", filename)

	s.mu.Lock()
	s.objects[key] = data
	s.types[key] = contentType
	s.mu.Unlock()
	return ImageScheme + "://" + key, nil
}

// Load returns a reader over a copy of the stored content.
func (s *Images) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	_, key, err := store.ParseObjectURI(ImageScheme, uri)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.objects["images/"+key]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	s.loads.Add(1)
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes the image if present.
func (s *Images) Delete(ctx context.Context, uri string) error {
	_, key, err := store.ParseObjectURI(ImageScheme, uri)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, "images/"+key)
	delete(s.types, "images/"+key)
	s.mu.Unlock()
	return nil
}

// ContentType returns the content type recorded for uri.
func (s *Images) ContentType(uri string) string {
	_, key, err := store.ParseObjectURI(ImageScheme, uri)
	if err != nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types["images/"+key]
}

// Len returns the number of stored images.
func (s *Images) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Loads returns how many times Load found an image.
func (s *Images) Loads() int64 {
	return s.loads.Load()
}
