package groupware

import (
	"log/slog"
	"time"

	"github.com/rbaliyan/event/v3/transport"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/secret"
	"github.com/rbaliyan/groupware/store"
)

// Default configuration values.
const (
	DefaultShutdownTimeout = 30 * time.Second // default graceful shutdown timeout
	MinShutdownTimeout     = 1 * time.Second  // minimum shutdown timeout

	// Query limits
	DefaultMaxQueryLimit     = 500 // max contacts per list or search
	DefaultQueryLimit        = 50  // default contacts per list or search
	DefaultAutocompleteLimit = 10  // default autocomplete suggestions

	// Concurrency limits
	DefaultMaxConcurrentWrites = 16 // max concurrent write operations per service
	DefaultBulkConcurrency     = 4  // max parallel items in one bulk operation

	// DefaultMaxImageSize is the largest contact image accepted.
	DefaultMaxImageSize = contact.DefaultMaxImageSize
)

// options holds service configuration.
type options struct {
	contacts store.ContactStore
	accounts store.AccountStore
	images   store.ImageFileStore
	crypter  secret.Crypter
	prober   *probe.Prober
	logger   *slog.Logger

	plugins []Plugin

	// Limits
	maxImageSize      int
	maxQueryLimit     int
	defaultQueryLimit int
	autocompleteLimit int
	collation         language.Tag

	// Concurrency limits
	maxConcurrentWrites int
	bulkConcurrency     int

	// Shutdown
	shutdownTimeout time.Duration

	// OpenTelemetry
	tracingEnabled bool
	metricsEnabled bool
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Event handling
	eventErrorsFatal      bool                    // If true, event publishing failures cause operation to fail
	eventTransport        transport.Transport     // Event transport (optional, uses noop if nil)
	redisClient           redis.UniversalClient   // Redis client for event transport (optional, uses noop if nil)
	onEventPublishFailure EventPublishFailureFunc // Callback for event publish failures (always set)
}

// EventPublishFailureFunc is called when an event fails to publish.
// The eventName is the name of the event (e.g., "ContactCreated"), and err is the publish error.
type EventPublishFailureFunc func(eventName string, err error)

// safeEventPublishFailure calls the event failure callback with panic recovery.
// If the callback panics, the panic is logged and suppressed.
func (o *options) safeEventPublishFailure(eventName string, err error) {
	if o.onEventPublishFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic in event publish failure handler",
				"event", eventName,
				"original_error", err,
				"panic", r,
			)
		}
	}()
	o.onEventPublishFailure(eventName, err)
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		logger:              slog.Default(),
		crypter:             secret.Plain{},
		maxImageSize:        DefaultMaxImageSize,
		maxQueryLimit:       DefaultMaxQueryLimit,
		defaultQueryLimit:   DefaultQueryLimit,
		autocompleteLimit:   DefaultAutocompleteLimit,
		collation:           language.Und,
		maxConcurrentWrites: DefaultMaxConcurrentWrites,
		bulkConcurrency:     DefaultBulkConcurrency,
		shutdownTimeout:     DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.defaultQueryLimit > o.maxQueryLimit {
		o.defaultQueryLimit = o.maxQueryLimit
	}
	if o.bulkConcurrency > o.maxConcurrentWrites {
		o.bulkConcurrency = o.maxConcurrentWrites
	}

	// Ensure event failure callback is always set
	if o.onEventPublishFailure == nil {
		o.onEventPublishFailure = func(eventName string, err error) {
			o.logger.Error("failed to publish event", "event", eventName, "error", err)
		}
	}

	return o
}

// Option configures a groupware service.
type Option func(*options)

// --- Core Options ---

// WithContactStore sets the contact storage backend (required).
func WithContactStore(s store.ContactStore) Option {
	return func(o *options) {
		if s != nil {
			o.contacts = s
		}
	}
}

// WithAccountStore sets the account storage backend (required).
// Wrap it with store/cached to serve account reads from Redis.
func WithAccountStore(s store.AccountStore) Option {
	return func(o *options) {
		if s != nil {
			o.accounts = s
		}
	}
}

// WithImageStore sets where contact images are kept. Without one, images
// are stored inline in the contact.
func WithImageStore(s store.ImageFileStore) Option {
	return func(o *options) {
		if s != nil {
			o.images = s
		}
	}
}

// WithCrypter sets how account passwords are sealed at rest.
// Default is secret.Plain, which stores them as given.
func WithCrypter(c secret.Crypter) Option {
	return func(o *options) {
		if c != nil {
			o.crypter = c
		}
	}
}

// WithProber sets the prober used by MailAccounts.Probe.
// Default is probe.New with the service logger.
func WithProber(p *probe.Prober) Option {
	return func(o *options) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// --- Plugin Options ---

// WithPlugin registers a plugin. Plugins implementing ContactHook or
// AccountHook are called around saves.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		if p != nil {
			o.plugins = append(o.plugins, p)
		}
	}
}

// WithPlugins registers multiple plugins.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		for _, p := range plugins {
			if p != nil {
				o.plugins = append(o.plugins, p)
			}
		}
	}
}

// --- OpenTelemetry Options ---

// WithTracing enables or disables OpenTelemetry tracing.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithOTel enables both tracing and metrics.
func WithOTel(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		o.metricsEnabled = enabled
	}
}

// WithServiceName sets the service name used for the event bus and telemetry.
// Default is "groupware".
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithTracerProvider sets a custom tracer provider.
// If not set, the global tracer provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets a custom meter provider.
// If not set, the global meter provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// --- Limit Options ---

// WithMaxImageSize sets the largest contact image accepted, in bytes.
func WithMaxImageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxImageSize = n
		}
	}
}

// WithMaxQueryLimit caps the page size of List and Search.
func WithMaxQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQueryLimit = n
		}
	}
}

// WithDefaultQueryLimit sets the page size used when a query sets none.
// It is capped by the max query limit.
func WithDefaultQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultQueryLimit = n
		}
	}
}

// WithAutocompleteLimit sets how many suggestions Autocomplete returns by default.
func WithAutocompleteLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.autocompleteLimit = n
		}
	}
}

// WithCollation sets the language whose collation orders contacts by name.
// Default is the root collation.
func WithCollation(tag language.Tag) Option {
	return func(o *options) {
		o.collation = tag
	}
}

// --- Concurrency Options ---

// WithMaxConcurrentWrites sets the maximum number of concurrent write operations.
// Close waits for in-flight writes up to the shutdown timeout.
// Default is 16.
func WithMaxConcurrentWrites(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentWrites = n
		}
	}
}

// WithBulkConcurrency sets how many items of one bulk operation run in parallel.
// Default is 4.
func WithBulkConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bulkConcurrency = n
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for in-flight operations
// during graceful shutdown.
// Default is 30 seconds. Minimum is 1 second.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= MinShutdownTimeout {
			o.shutdownTimeout = d
		}
	}
}

// --- Event Options ---

// WithEventErrorsFatal configures whether event publishing failures should
// cause the operation to fail. By default, event failures are logged but
// the operation succeeds (the contact is still saved).
func WithEventErrorsFatal(fatal bool) Option {
	return func(o *options) {
		o.eventErrorsFatal = fatal
	}
}

// WithEventTransport sets the event transport for publishing and subscribing.
// If not provided, a noop transport is used (events are silently dropped).
func WithEventTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.eventTransport = t
		}
	}
}

// WithRedisClient sets a Redis client for the event transport.
// When provided, events are published to Redis Streams.
//
// Compatible with *redis.Client, *redis.ClusterClient, and redis.UniversalClient.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		if client != nil {
			o.redisClient = client
		}
	}
}

// WithEventPublishFailureHandler sets a callback for event publishing failures.
// This callback is invoked whenever an event fails to publish (and eventErrorsFatal is false).
//
// By default, failures are logged using the configured logger.
func WithEventPublishFailureHandler(fn EventPublishFailureFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.onEventPublishFailure = fn
		}
	}
}

// pageLimit returns the effective page size for a requested limit.
func (o *options) pageLimit(n int) int {
	switch {
	case n <= 0:
		return o.defaultQueryLimit
	case n > o.maxQueryLimit:
		return o.maxQueryLimit
	}
	return n
}
