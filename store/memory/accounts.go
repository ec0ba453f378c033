package memory

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/store"
)

// GetAccount retrieves an account by user and ID.
func (s *Store) GetAccount(ctx context.Context, userID string, id int) (*account.Account, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, store.ErrInvalidUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

// GetDefaultAccount retrieves the user's default account.
func (s *Store) GetDefaultAccount(ctx context.Context, userID string) (*account.Account, error) {
	return s.GetAccount(ctx, userID, account.DefaultAccountID)
}

// ListAccounts returns all accounts of a user ordered by ID.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*account.Account, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, store.ErrInvalidUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.accounts[userID]))
	out := make([]*account.Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.accounts[userID][id].Clone())
	}
	return out, nil
}

// InsertAccount stores acc under the next free ID of its user.
func (s *Store) InsertAccount(ctx context.Context, acc *account.Account) (int, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if acc == nil || acc.UserID == "" {
		return 0, store.ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.accounts[acc.UserID]
	if user == nil {
		user = make(map[int]*account.Account)
		s.accounts[acc.UserID] = user
	}
	if hasAddress(user, acc.PrimaryAddress, -1) {
		return 0, store.ErrDuplicateEntry
	}

	saved := acc.Clone()
	saved.ID = store.NextAccountID(slices.Collect(maps.Keys(user)))
	saved.LastModified = store.Now()
	user[saved.ID] = saved
	return saved.ID, nil
}

// UpdateAccount writes the listed attributes of acc.
func (s *Store) UpdateAccount(ctx context.Context, userID string, acc *account.Account, attrs []account.Attribute) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if userID == "" {
		return store.ErrInvalidUserID
	}
	if acc == nil {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[userID][acc.ID]
	if !ok {
		return store.ErrNotFound
	}
	saved, err := store.MergeAccount(cur, acc, attrs)
	if err != nil {
		return err
	}
	if hasAddress(s.accounts[userID], saved.PrimaryAddress, saved.ID) {
		return store.ErrDuplicateEntry
	}
	s.accounts[userID][acc.ID] = saved
	return nil
}

// DeleteAccount removes an account other than the default one.
func (s *Store) DeleteAccount(ctx context.Context, userID string, id int) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if userID == "" {
		return store.ErrInvalidUserID
	}
	if id == account.DefaultAccountID {
		return store.ErrDefaultAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[userID][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.accounts[userID], id)
	return nil
}

// ResolvePrimaryAddress finds the account owning address.
func (s *Store) ResolvePrimaryAddress(ctx context.Context, address string) (string, int, error) {
	if err := s.checkConnected(); err != nil {
		return "", 0, err
	}
	if address == "" {
		return "", 0, store.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, userID := range slices.Sorted(maps.Keys(s.accounts)) {
		user := s.accounts[userID]
		for _, id := range slices.Sorted(maps.Keys(user)) {
			if strings.EqualFold(user[id].PrimaryAddress, address) {
				return userID, id, nil
			}
		}
	}
	return "", 0, store.ErrNotFound
}

// InvalidateAccount is a no-op; nothing is cached.
func (s *Store) InvalidateAccount(ctx context.Context, userID string, id int) error {
	return s.checkConnected()
}

// InvalidateAccounts is a no-op; nothing is cached.
func (s *Store) InvalidateAccounts(ctx context.Context, userID string) error {
	return s.checkConnected()
}

func hasAddress(user map[int]*account.Account, address string, except int) bool {
	if address == "" {
		return false
	}
	for id, a := range user {
		if id != except && strings.EqualFold(a.PrimaryAddress, address) {
			return true
		}
	}
	return false
}
