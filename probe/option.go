package probe

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/rbaliyan/groupware/retry"
)

// Defaults.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultLocalName = "localhost"
)

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type options struct {
	timeout   time.Duration
	tlsConfig *tls.Config
	policy    retry.Policy
	localName string
	dial      DialFunc
	logger    *slog.Logger
}

func newOptions(opts ...Option) *options {
	d := &net.Dialer{}
	o := &options{
		timeout:   DefaultTimeout,
		policy:    retry.DefaultPolicy(),
		localName: DefaultLocalName,
		dial:      d.DialContext,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Prober.
type Option func(*options)

// WithTimeout bounds a single check including retries.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTLSConfig sets the TLS configuration. ServerName is filled in per
// server when empty.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// WithRetry sets the retry policy for connection failures.
// Authentication failures are never retried.
func WithRetry(p retry.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLocalName sets the name sent in SMTP EHLO.
func WithLocalName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.localName = name
		}
	}
}

// WithDialer replaces the network dialer.
func WithDialer(dial DialFunc) Option {
	return func(o *options) {
		if dial != nil {
			o.dial = dial
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
