// Package sqlstore implements store.ContactStore and store.AccountStore on
// top of database/sql through sqlx. The contacts table is generated from
// the contact field catalog: one column per field, named after
// contact.Field.Column. Driver specifics live in a Dialect; store/postgres
// and store/sqlite provide the ready-made ones.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// Compile-time checks
var (
	_ store.ContactStore = (*Store)(nil)
	_ store.AccountStore = (*Store)(nil)
)

// Store implements the contact and account stores on a SQL database.
type Store struct {
	db        *sqlx.DB
	dialect   Dialect
	opts      *options
	connected int32
	logger    *slog.Logger

	fields     []contact.Field
	selectCols string
}

// New creates a SQL store on db. Call Connect() to create the schema.
func New(db *sqlx.DB, dialect Dialect, opts ...Option) *Store {
	o := newOptions(opts...)
	s := &Store{
		db:      db,
		dialect: dialect,
		opts:    o,
		logger:  o.logger,
		fields:  contact.Fields(),
	}
	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		cols[i] = quote(f.Column())
	}
	s.selectCols = strings.Join(cols, ", ")
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sqlx.DB { return s.db }

// Connect verifies the connection and creates tables and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}

	if s.db == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("%s: db is required", s.dialect.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("%s ping: %w", s.dialect.Name, err)
	}

	if err := s.ensureSchema(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("connected to "+s.dialect.Name,
		"contacts_table", s.opts.contactsTable,
		"accounts_table", s.opts.accountsTable)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the database connection.
func (s *Store) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

// ContactsSchema returns the CREATE TABLE statement for the contacts table.
func (s *Store) ContactsSchema() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.opts.contactsTable)
	for _, f := range s.fields {
		fmt.Fprintf(&b, "\t%s %s,\n", quote(f.Column()), s.dialect.columnType(f.Kind()))
	}
	fmt.Fprintf(&b, "\t%s %s NOT NULL DEFAULT '',\n", quote(sortKeyColumn), s.dialect.Text)
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s, %s)\n)",
		quote(contact.FieldFolderID.Column()), quote(contact.FieldObjectID.Column()))
	return b.String()
}

// ensureSchema creates the required tables and indexes.
func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.ContactsSchema()); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}

	accounts := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id %s NOT NULL,
			id %s NOT NULL,
			name %s NOT NULL DEFAULT '',
			primary_address %s NOT NULL DEFAULT '',
			address_key %s,
			data %s NOT NULL,
			last_modified %s NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, id),
			UNIQUE (user_id, address_key)
		)`, s.opts.accountsTable,
		s.dialect.Text, s.dialect.Integer, s.dialect.Text, s.dialect.Text, s.dialect.Text,
		s.dialect.JSON, s.dialect.BigInt)
	if _, err := s.db.ExecContext(ctx, accounts); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}

	t := s.opts.contactsTable
	folder := quote(contact.FieldFolderID.Column())
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_modified ON %s(%s, %s)`, t, t, folder, quote(contact.FieldLastModified.Column())),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sort ON %s(%s, %s)`, t, t, folder, quote(sortKeyColumn)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_email1 ON %s(%s)`, t, t, quote(contact.FieldEmail1.Column())),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_address ON %s(address_key)`, s.opts.accountsTable, s.opts.accountsTable),
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			s.logger.Warn("failed to create index", "error", err, "sql", idx)
		}
	}
	return nil
}
