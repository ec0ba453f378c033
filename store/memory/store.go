// Package memory provides in-memory ContactStore and AccountStore
// implementations for testing.
// This store is not suitable for production use - data is not persisted.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// Store implements store.ContactStore and store.AccountStore with in-memory
// storage. Thread-safe for concurrent use. Not suitable for production.
type Store struct {
	mu        sync.RWMutex
	contacts  map[string]map[string]*contact.Contact // folderID -> id -> contact
	accounts  map[string]map[int]*account.Account    // userID -> id -> account
	connected int32
}

var (
	_ store.ContactStore = (*Store)(nil)
	_ store.AccountStore = (*Store)(nil)
)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		contacts: make(map[string]map[string]*contact.Contact),
		accounts: make(map[string]map[int]*account.Account),
	}
}

// Connect marks the store as connected.
func (s *Store) Connect(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}
	return nil
}

// Close marks the store as disconnected. Data is kept.
func (s *Store) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}
