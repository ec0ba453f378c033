package sqlstore

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultContactsTable = "contacts"
	DefaultAccountsTable = "mail_accounts"
	DefaultTimeout       = 10 * time.Second
)

// options holds SQL store configuration.
type options struct {
	contactsTable string
	accountsTable string
	timeout       time.Duration
	logger        *slog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		contactsTable: DefaultContactsTable,
		accountsTable: DefaultAccountsTable,
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a SQL store.
type Option func(*options)

// WithContactsTable sets the contacts table name.
func WithContactsTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.contactsTable = name
		}
	}
}

// WithAccountsTable sets the mail accounts table name.
func WithAccountsTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.accountsTable = name
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
