package mongo

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultDatabase           = "groupware"
	DefaultContactsCollection = "contacts"
	DefaultAccountsCollection = "mail_accounts"
	DefaultTimeout            = 10 * time.Second
)

// options holds MongoDB store configuration.
type options struct {
	database           string
	contactsCollection string
	accountsCollection string
	timeout            time.Duration
	logger             *slog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		database:           DefaultDatabase,
		contactsCollection: DefaultContactsCollection,
		accountsCollection: DefaultAccountsCollection,
		timeout:            DefaultTimeout,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a MongoDB store.
type Option func(*options)

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(o *options) {
		if name != "" {
			o.database = name
		}
	}
}

// WithContactsCollection sets the contacts collection name.
func WithContactsCollection(name string) Option {
	return func(o *options) {
		if name != "" {
			o.contactsCollection = name
		}
	}
}

// WithAccountsCollection sets the mail accounts collection name.
func WithAccountsCollection(name string) Option {
	return func(o *options) {
		if name != "" {
			o.accountsCollection = name
		}
	}
}

// WithTimeout sets the operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
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
