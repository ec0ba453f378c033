// Package cached provides a Redis read-through cache in front of an
// AccountStore.
//
// Account descriptions are read on every mail operation and change rarely.
// Reads are served from Redis; writes go to the backend and then drop the
// user's cached entries. InvalidateAccount and InvalidateAccounts drop
// entries for changes made behind the cache's back, for example by another
// process writing to the same database.
//
// Redis failures never fail a call: reads fall through to the backend and
// the failure is logged.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/store"
)

// Store caches a store.AccountStore in Redis.
type Store struct {
	backend store.AccountStore
	client  redis.UniversalClient
	opts    *options
	logger  *slog.Logger
}

var _ store.AccountStore = (*Store)(nil)

// New wraps backend. client is compatible with *redis.Client,
// *redis.ClusterClient and redis.UniversalClient.
func New(backend store.AccountStore, client redis.UniversalClient, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{backend: backend, client: client, opts: o, logger: o.logger}
}

// Connect connects the backend and checks Redis.
func (s *Store) Connect(ctx context.Context) error {
	if err := s.backend.Connect(ctx); err != nil {
		return err
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Warn("account cache unavailable", "error", err)
	}
	return nil
}

// Close closes the backend. The Redis client belongs to the caller.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

func (s *Store) accountKey(userID string, id int) string {
	return s.opts.prefix + userID + ":" + strconv.Itoa(id)
}

func (s *Store) listKey(userID string) string {
	return s.opts.prefix + userID + ":list"
}

// lookup decodes a cached value into v and reports whether it was found.
func (s *Store) lookup(ctx context.Context, key string, v any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("account cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("account cache entry corrupt", "key", key, "error", err)
		return false
	}
	s.logger.Debug("account cache hit", "key", key)
	return true
}

func (s *Store) remember(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, data, s.opts.ttl).Err(); err != nil {
		s.logger.Warn("account cache write failed", "key", key, "error", err)
	}
}

// GetAccount returns the cached account or loads it from the backend.
func (s *Store) GetAccount(ctx context.Context, userID string, id int) (*account.Account, error) {
	if userID == "" {
		return nil, store.ErrInvalidUserID
	}
	key := s.accountKey(userID, id)
	var acc account.Account
	if s.lookup(ctx, key, &acc) {
		return &acc, nil
	}
	a, err := s.backend.GetAccount(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, a)
	return a, nil
}

// GetDefaultAccount returns the user's default account.
func (s *Store) GetDefaultAccount(ctx context.Context, userID string) (*account.Account, error) {
	return s.GetAccount(ctx, userID, account.DefaultAccountID)
}

// ListAccounts returns the cached account list or loads it from the backend.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*account.Account, error) {
	if userID == "" {
		return nil, store.ErrInvalidUserID
	}
	key := s.listKey(userID)
	var list []*account.Account
	if s.lookup(ctx, key, &list) {
		return list, nil
	}
	list, err := s.backend.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, list)
	return list, nil
}

// InsertAccount inserts through the backend and drops the cached list.
func (s *Store) InsertAccount(ctx context.Context, acc *account.Account) (int, error) {
	id, err := s.backend.InsertAccount(ctx, acc)
	if err != nil {
		return 0, err
	}
	s.drop(ctx, s.listKey(acc.UserID))
	return id, nil
}

// UpdateAccount updates through the backend and drops the cached entries.
func (s *Store) UpdateAccount(ctx context.Context, userID string, acc *account.Account, attrs []account.Attribute) error {
	if err := s.backend.UpdateAccount(ctx, userID, acc, attrs); err != nil {
		return err
	}
	s.drop(ctx, s.accountKey(userID, acc.ID), s.listKey(userID))
	return nil
}

// DeleteAccount deletes through the backend and drops the cached entries.
func (s *Store) DeleteAccount(ctx context.Context, userID string, id int) error {
	if err := s.backend.DeleteAccount(ctx, userID, id); err != nil {
		return err
	}
	s.drop(ctx, s.accountKey(userID, id), s.listKey(userID))
	return nil
}

// ResolvePrimaryAddress is not cached.
func (s *Store) ResolvePrimaryAddress(ctx context.Context, address string) (string, int, error) {
	return s.backend.ResolvePrimaryAddress(ctx, address)
}

// InvalidateAccount drops the cached entries of one account.
func (s *Store) InvalidateAccount(ctx context.Context, userID string, id int) error {
	if err := s.backend.InvalidateAccount(ctx, userID, id); err != nil {
		return err
	}
	return s.del(ctx, s.accountKey(userID, id), s.listKey(userID))
}

// InvalidateAccounts drops every cached entry of a user.
func (s *Store) InvalidateAccounts(ctx context.Context, userID string) error {
	if err := s.backend.InvalidateAccounts(ctx, userID); err != nil {
		return err
	}
	pattern := s.opts.prefix + userID + ":*"
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cached: scan %s: %w", pattern, err)
	}
	return s.del(ctx, keys...)
}

// drop removes keys after a successful write; failures are logged.
func (s *Store) drop(ctx context.Context, keys ...string) {
	if err := s.del(ctx, keys...); err != nil {
		s.logger.Warn("account cache invalidation failed", "keys", keys, "error", err)
	}
}

func (s *Store) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cached: delete keys: %w", err)
	}
	return nil
}
