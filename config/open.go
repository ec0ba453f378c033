package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/rbaliyan/groupware"
	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/retry"
	"github.com/rbaliyan/groupware/secret"
	"github.com/rbaliyan/groupware/store"
	"github.com/rbaliyan/groupware/store/cached"
	imagecache "github.com/rbaliyan/groupware/store/image/cached"
	"github.com/rbaliyan/groupware/store/image/gcs"
	imageotel "github.com/rbaliyan/groupware/store/image/otel"
	"github.com/rbaliyan/groupware/store/image/s3"
	"github.com/rbaliyan/groupware/store/memory"
	"github.com/rbaliyan/groupware/store/mongo"
	"github.com/rbaliyan/groupware/store/postgres"
	"github.com/rbaliyan/groupware/store/sqlite"
	"github.com/rbaliyan/groupware/store/sqlstore"
)

// backend is a store serving both contacts and accounts.
type backend interface {
	store.ContactStore
	store.AccountStore
}

// Runtime holds the resources built from a Config. Close releases the
// database handles and Redis client the stores do not own.
type Runtime struct {
	// Options configure a service over the built resources.
	Options []groupware.Option

	Contacts store.ContactStore
	Accounts store.AccountStore
	Images   store.ImageFileStore
	Redis    redis.UniversalClient

	logger  *slog.Logger
	closers []func(context.Context) error
}

// Open builds the stores, cache, image store, crypter and prober
// described by cfg. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger) (_ *Runtime, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{logger: logger}
	defer func() {
		if err != nil {
			rt.Close(ctx)
		}
	}()

	be, err := rt.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt.Contacts = be
	rt.Accounts = be

	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		rt.Redis = client
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		rt.Accounts = cached.New(be, client,
			cached.WithPrefix(cfg.Cache.Prefix),
			cached.WithTTL(cfg.Cache.TTL),
			cached.WithLogger(logger))
	}

	if rt.Images, err = rt.openImages(ctx, cfg); err != nil {
		return nil, err
	}

	crypter, err := openCrypter(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	policy := retry.DefaultPolicy()
	if cfg.Probe.Attempts > 0 {
		policy.Attempts = cfg.Probe.Attempts
	}
	prober := probe.New(
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithRetry(policy),
		probe.WithLocalName(cfg.Probe.LocalName),
		probe.WithLogger(logger),
	)

	rt.Options = []groupware.Option{
		groupware.WithContactStore(rt.Contacts),
		groupware.WithAccountStore(rt.Accounts),
		groupware.WithImageStore(rt.Images),
		groupware.WithCrypter(crypter),
		groupware.WithProber(prober),
		groupware.WithLogger(logger),
		groupware.WithServiceName(cfg.Telemetry.ServiceName),
		groupware.WithTracing(cfg.Telemetry.Tracing),
		groupware.WithMetrics(cfg.Telemetry.Metrics),
		groupware.WithEventErrorsFatal(cfg.Events.ErrorsFatal),
		groupware.WithMaxQueryLimit(cfg.Limits.MaxQuery),
		groupware.WithDefaultQueryLimit(cfg.Limits.DefaultQuery),
		groupware.WithAutocompleteLimit(cfg.Limits.Autocomplete),
		groupware.WithMaxImageSize(cfg.Limits.MaxImageSize),
		groupware.WithMaxConcurrentWrites(cfg.Limits.MaxConcurrentWrites),
		groupware.WithBulkConcurrency(cfg.Limits.BulkConcurrency),
		groupware.WithShutdownTimeout(cfg.Limits.ShutdownTimeout),
	}
	if cfg.Events.Redis {
		rt.Options = append(rt.Options, groupware.WithRedisClient(rt.Redis))
	}
	if cfg.Limits.Collation != "" {
		rt.Options = append(rt.Options, groupware.WithCollation(language.Make(cfg.Limits.Collation)))
	}

	logger.Debug("groupware runtime opened",
		"store", cfg.Store.Driver,
		"account_cache", rt.Redis != nil,
		"images", cfg.Images.Backend,
		"secrets", cfg.Secrets.Mode)
	return rt, nil
}

func (rt *Runtime) openBackend(ctx context.Context, cfg *Config) (backend, error) {
	sqlOpts := []sqlstore.Option{sqlstore.WithLogger(rt.logger)}
	if cfg.Store.ContactsTable != "" {
		sqlOpts = append(sqlOpts, sqlstore.WithContactsTable(cfg.Store.ContactsTable))
	}
	if cfg.Store.AccountsTable != "" {
		sqlOpts = append(sqlOpts, sqlstore.WithAccountsTable(cfg.Store.AccountsTable))
	}
	if cfg.Store.Timeout > 0 {
		sqlOpts = append(sqlOpts, sqlstore.WithTimeout(cfg.Store.Timeout))
	}

	switch cfg.Store.Driver {
	case DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.Store.DSN, sqlOpts...)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return st.DB().Close() })
		return st, nil
	case DriverPostgres:
		st, err := postgres.Open(ctx, cfg.Store.DSN, sqlOpts...)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return st.DB().Close() })
		return st, nil
	case DriverMongo:
		mongoOpts := []mongo.Option{mongo.WithLogger(rt.logger)}
		if cfg.Store.Database != "" {
			mongoOpts = append(mongoOpts, mongo.WithDatabase(cfg.Store.Database))
		}
		if cfg.Store.ContactsTable != "" {
			mongoOpts = append(mongoOpts, mongo.WithContactsCollection(cfg.Store.ContactsTable))
		}
		if cfg.Store.AccountsTable != "" {
			mongoOpts = append(mongoOpts, mongo.WithAccountsCollection(cfg.Store.AccountsTable))
		}
		if cfg.Store.Timeout > 0 {
			mongoOpts = append(mongoOpts, mongo.WithTimeout(cfg.Store.Timeout))
		}
		st, err := mongo.Open(cfg.Store.DSN, mongoOpts...)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(ctx context.Context) error { return st.Client().Disconnect(ctx) })
		return st, nil
	default:
		return memory.New(), nil
	}
}

func (rt *Runtime) openImages(ctx context.Context, cfg *Config) (store.ImageFileStore, error) {
	ic := cfg.Images
	var images store.ImageFileStore
	switch ic.Backend {
	case ImagesS3:
		opts := []s3.Option{
			s3.WithBucket(ic.Bucket),
			s3.WithPrefix(ic.Prefix),
			s3.WithRegion(ic.Region),
			s3.WithLogger(rt.logger),
		}
		if ic.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(ic.Endpoint, ic.PathStyle))
		}
		if ic.AccessKey != "" {
			opts = append(opts, s3.WithStaticCredentials(ic.AccessKey, ic.SecretKey, ""))
		}
		if ic.RoleARN != "" {
			opts = append(opts, s3.WithAssumeRole(ic.RoleARN, "groupware", ""))
		}
		st, err := s3.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		images = st
	case ImagesGCS:
		opts := []gcs.Option{
			gcs.WithBucket(ic.Bucket),
			gcs.WithPrefix(ic.Prefix),
			gcs.WithLogger(rt.logger),
		}
		if ic.Endpoint != "" {
			opts = append(opts, gcs.WithEndpoint(ic.Endpoint))
		}
		if ic.CredentialsFile != "" {
			opts = append(opts, gcs.WithCredentialsFile(ic.CredentialsFile))
		}
		st, err := gcs.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return st.Close() })
		images = st
	default:
		return nil, nil
	}

	if ic.CacheDir != "" {
		opts := []imagecache.Option{imagecache.WithDir(ic.CacheDir), imagecache.WithLogger(rt.logger)}
		if ic.CacheMaxSize > 0 {
			opts = append(opts, imagecache.WithMaxSize(ic.CacheMaxSize))
		}
		if ic.CacheTTL > 0 {
			opts = append(opts, imagecache.WithTTL(ic.CacheTTL))
		}
		st, err := imagecache.New(images, opts...)
		if err != nil {
			return nil, err
		}
		images = st
	}

	if cfg.Telemetry.Tracing || cfg.Telemetry.Metrics {
		st, err := imageotel.New(images,
			imageotel.WithTracing(cfg.Telemetry.Tracing),
			imageotel.WithMetrics(cfg.Telemetry.Metrics))
		if err != nil {
			return nil, err
		}
		images = st
	}
	return images, nil
}

func openCrypter(sc SecretConfig) (secret.Crypter, error) {
	switch sc.Mode {
	case SecretsPassphrase:
		s, err := secret.NewSealer(sc.Passphrase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SecretsKeyring:
		ring, err := secret.OpenKeyring(secret.KeyringConfig{
			Service:      sc.KeyringService,
			FileDir:      sc.KeyringDir,
			FilePassword: sc.KeyringPassword,
		})
		if err != nil {
			return nil, err
		}
		s, err := secret.FromKeyring(ring)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return secret.Plain{}, nil
	}
}

// NewService creates a service over the runtime's resources. extra options
// are applied last.
func (rt *Runtime) NewService(extra ...groupware.Option) (groupware.Service, error) {
	opts := append(append([]groupware.Option(nil), rt.Options...), extra...)
	return groupware.NewService(opts...)
}

// Close releases the resources in reverse order of opening.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close runtime: %w", err)
	}
	return nil
}
