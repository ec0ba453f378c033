// Package mongo provides a MongoDB implementation of store.ContactStore and
// store.AccountStore.
//
// Contacts are stored one document per contact with a key per catalog
// field, named after contact.Field.Column. Unset dates, images and lists
// are left out of the document.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// Compile-time checks
var (
	_ store.ContactStore = (*Store)(nil)
	_ store.AccountStore = (*Store)(nil)
)

// Store implements the contact and account stores using MongoDB.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	contacts  *mongo.Collection
	accounts  *mongo.Collection
	opts      *options
	connected int32
	logger    *slog.Logger
	fields    []contact.Field
}

// New creates a new MongoDB store with the provided client.
// Call Connect() to initialize the collections and indexes.
func New(client *mongo.Client, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		client: client,
		opts:   o,
		logger: o.logger,
		fields: contact.Fields(),
	}
}

// Open connects a client to uri and returns the store.
func Open(uri string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return New(client, opts...), nil
}

// Client returns the underlying client.
func (s *Store) Client() *mongo.Client { return s.client }

// Connect initializes the database, collections, and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&s.connected) == 1 {
		return store.ErrAlreadyConnected
	}

	if s.client == nil {
		return fmt.Errorf("mongo: client is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	s.db = s.client.Database(s.opts.database)
	s.contacts = s.db.Collection(s.opts.contactsCollection)
	s.accounts = s.db.Collection(s.opts.accountsCollection)

	if err := s.ensureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	atomic.StoreInt32(&s.connected, 1)
	s.logger.Info("connected to MongoDB",
		"database", s.opts.database,
		"contacts", s.opts.contactsCollection,
		"accounts", s.opts.accountsCollection)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the MongoDB client.
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

// ensureIndexes creates required indexes.
func (s *Store) ensureIndexes(ctx context.Context) error {
	folder := contact.FieldFolderID.Column()
	contactIndexes := []mongo.IndexModel{
		// Contact ids are unique per folder.
		{
			Keys: bson.D{
				bson.E{Key: folder, Value: 1},
				bson.E{Key: contact.FieldObjectID.Column(), Value: 1},
			},
			Options: mongoopts.Index().SetUnique(true),
		},
		{Keys: bson.D{
			bson.E{Key: folder, Value: 1},
			bson.E{Key: contact.FieldLastModified.Column(), Value: 1},
		}},
		{Keys: bson.D{
			bson.E{Key: folder, Value: 1},
			bson.E{Key: sortKeyField, Value: 1},
		}},
		{Keys: bson.D{bson.E{Key: contact.FieldEmail1.Column(), Value: 1}}},
	}
	if _, err := s.contacts.Indexes().CreateMany(ctx, contactIndexes); err != nil {
		return err
	}

	accountIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				bson.E{Key: "user_id", Value: 1},
				bson.E{Key: "id", Value: 1},
			},
			Options: mongoopts.Index().SetUnique(true),
		},
		// Primary addresses are unique per user; accounts without one are
		// left out of the index.
		{
			Keys: bson.D{
				bson.E{Key: "user_id", Value: 1},
				bson.E{Key: "address_key", Value: 1},
			},
			Options: mongoopts.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"address_key": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{bson.E{Key: "address_key", Value: 1}}},
	}
	_, err := s.accounts.Indexes().CreateMany(ctx, accountIndexes)
	return err
}
