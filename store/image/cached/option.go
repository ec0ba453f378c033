package cached

import (
	"log/slog"
	"time"
)

// Defaults.
const (
	DefaultMaxSize = 256 << 20
	DefaultTTL     = 24 * time.Hour
	dirName        = "groupware-images"
)

type options struct {
	dir     string
	maxSize int64
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures the cached image store.
type Option func(*options)

// WithDir sets the parent directory of the cache. Default is os.TempDir().
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithMaxSize caps the total size of cached files in bytes. Images that do
// not fit are served but not cached.
func WithMaxSize(size int64) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}

// WithTTL sets how long a cached file is served before it is refetched.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
