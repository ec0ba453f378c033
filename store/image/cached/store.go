// Package cached keeps a local file copy of contact images loaded from a
// remote image store.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rbaliyan/groupware/store"
)

// Store wraps an ImageFileStore with a size-bounded file cache.
type Store struct {
	backend store.ImageFileStore
	dir     string
	maxSize int64
	ttl     time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	size int64
}

var _ store.ImageFileStore = (*Store)(nil)

// New wraps backend. The cache directory is created if needed and its
// current size is counted against the limit.
func New(backend store.ImageFileStore, opts ...Option) (*Store, error) {
	o := &options{
		dir:     os.TempDir(),
		maxSize: DefaultMaxSize,
		ttl:     DefaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	dir := filepath.Join(o.dir, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	s := &Store{
		backend: backend,
		dir:     dir,
		maxSize: o.maxSize,
		ttl:     o.ttl,
		logger:  o.logger,
	}
	s.size = s.scan(func(string, fs.FileInfo) bool { return false })
	return s, nil
}

// Upload passes through to the backend. Images are cached on Load.
func (s *Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	return s.backend.Upload(ctx, filename, contentType, content)
}

// Load serves a fresh cached copy or reads from the backend, caching the
// content as the caller reads it.
func (s *Store) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	p := s.path(uri)
	if info, err := os.Stat(p); err == nil {
		if time.Since(info.ModTime()) < s.ttl {
			if f, err := os.Open(p); err == nil {
				s.logger.Debug("image cache hit", "uri", uri)
				return f, nil
			}
		} else {
			s.remove(p, info.Size())
		}
	}

	rc, err := s.backend.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		s.logger.Warn("image cache disabled for load", "uri", uri, "error", err)
		return rc, nil
	}
	return &teeReader{src: rc, tmp: tmp, dst: p, store: s}, nil
}

// Delete removes the image from the cache and the backend.
func (s *Store) Delete(ctx context.Context, uri string) error {
	p := s.path(uri)
	if info, err := os.Stat(p); err == nil {
		s.remove(p, info.Size())
	}
	return s.backend.Delete(ctx, uri)
}

// Prune removes expired files and returns how many were removed.
func (s *Store) Prune() int {
	var removed int
	now := time.Now()
	s.scan(func(p string, info fs.FileInfo) bool {
		if now.Sub(info.ModTime()) < s.ttl {
			return false
		}
		s.remove(p, info.Size())
		removed++
		return true
	})
	if removed > 0 {
		s.logger.Info("image cache pruned", "removed", removed)
	}
	return removed
}

// Size returns the number of cached bytes.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Store) path(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:]))
}

// scan visits cached files and returns the size of those visit keeps.
func (s *Store) scan(visit func(string, fs.FileInfo) bool) int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("read image cache", "error", err)
		return 0
	}
	var kept int64
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !visit(filepath.Join(s.dir, e.Name()), info) {
			kept += info.Size()
		}
	}
	return kept
}

func (s *Store) remove(p string, n int64) {
	if err := os.Remove(p); err != nil {
		return
	}
	s.mu.Lock()
	s.size = max(s.size-n, 0)
	s.mu.Unlock()
}

// reserve accounts n bytes if they fit under the limit.
func (s *Store) reserve(n int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size+n > s.maxSize {
		return false
	}
	s.size += n
	return true
}

// teeReader copies what the caller reads into tmp and moves it into place
// once the source is fully read and closed.
type teeReader struct {
	src    io.ReadCloser
	tmp    *os.File
	dst    string
	store  *Store
	n      int64
	eof    bool
	failed bool
	closed bool
}

func (r *teeReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 && !r.failed {
		if _, werr := r.tmp.Write(p[:n]); werr != nil {
			r.failed = true
		}
		r.n += int64(n)
	}
	if err == io.EOF {
		r.eof = true
	}
	return n, err
}

func (r *teeReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.src.Close()

	name := r.tmp.Name()
	if cerr := r.tmp.Close(); cerr != nil || r.failed || !r.eof || !r.store.reserve(r.n) {
		os.Remove(name)
		return err
	}
	if rerr := os.Rename(name, r.dst); rerr != nil {
		os.Remove(name)
		r.store.mu.Lock()
		r.store.size -= r.n
		r.store.mu.Unlock()
		r.store.logger.Warn("cache image", "error", rerr)
		return err
	}
	r.store.logger.Debug("cached image", "bytes", r.n)
	return err
}
