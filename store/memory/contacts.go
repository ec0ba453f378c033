package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// GetContact retrieves a contact by folder and ID.
func (s *Store) GetContact(ctx context.Context, folderID, id string) (*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, store.ErrInvalidFolderID
	}
	if id == "" {
		return nil, store.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[folderID][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c.Clone(), nil
}

// ListContacts returns the contacts of a folder.
func (s *Store) ListContacts(ctx context.Context, folderID string, opts store.ListOptions) (*store.ContactList, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, store.ErrInvalidFolderID
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	all := s.collect([]string{folderID}, opts.Owns)
	s.mu.RUnlock()

	return finish(all, opts), nil
}

// SearchContacts returns the contacts matching q.
func (s *Store) SearchContacts(ctx context.Context, q store.ContactQuery) (*store.ContactList, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	match, err := q.Matcher()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	all := s.collect(q.Folders, func(c *contact.Contact) bool {
		return q.Options.Owns(c) && match(c)
	})
	s.mu.RUnlock()

	return finish(all, q.Options), nil
}

// ModifiedSince returns the contacts of a folder changed after since.
func (s *Store) ModifiedSince(ctx context.Context, folderID string, since time.Time) ([]*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, store.ErrInvalidFolderID
	}

	s.mu.RLock()
	all := s.collect([]string{folderID}, func(c *contact.Contact) bool {
		return c.LastModified.After(since)
	})
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *contact.Contact) int {
		if c := a.LastModified.Compare(b.LastModified); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return all, nil
}

// collect clones the matching contacts of the folders, ordered by ID.
// Callers hold the read lock.
func (s *Store) collect(folders []string, match func(*contact.Contact) bool) []*contact.Contact {
	var out []*contact.Contact
	seen := make(map[string]bool, len(folders))
	for _, f := range folders {
		if seen[f] {
			continue
		}
		seen[f] = true
		for _, c := range s.contacts[f] {
			if match == nil || match(c) {
				out = append(out, c.Clone())
			}
		}
	}
	slices.SortFunc(out, func(a, b *contact.Contact) int {
		if c := cmp.Compare(a.FolderID, b.FolderID); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func finish(all []*contact.Contact, opts store.ListOptions) *store.ContactList {
	contact.SortContacts(all, opts.Comparator())
	list := store.Page(all, opts.Offset, opts.Limit)
	for i, c := range list.Contacts {
		list.Contacts[i] = store.Project(c, opts.Fields)
	}
	return list
}

// CreateContact persists a new contact.
func (s *Store) CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if c == nil || c.FolderID == "" {
		return nil, store.ErrInvalidFolderID
	}

	saved := c.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if saved.UID == "" {
		saved.UID = uuid.New().String()
	}
	now := store.Now()
	saved.CreationDate = now
	saved.LastModified = now

	s.mu.Lock()
	defer s.mu.Unlock()
	folder := s.contacts[saved.FolderID]
	if folder == nil {
		folder = make(map[string]*contact.Contact)
		s.contacts[saved.FolderID] = folder
	}
	if _, exists := folder[saved.ID]; exists {
		return nil, store.ErrDuplicateEntry
	}
	folder[saved.ID] = saved
	return saved.Clone(), nil
}

// UpdateContact replaces a stored contact unless it changed after
// clientLastModified.
func (s *Store) UpdateContact(ctx context.Context, c *contact.Contact, clientLastModified time.Time) (*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if c == nil || c.FolderID == "" {
		return nil, store.ErrInvalidFolderID
	}
	if c.ID == "" {
		return nil, store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contacts[c.FolderID][c.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !clientLastModified.IsZero() && cur.LastModified.After(store.Timestamp(clientLastModified)) {
		return nil, store.ErrConflict
	}

	saved := c.Clone()
	saved.CreatedBy = cur.CreatedBy
	saved.CreationDate = cur.CreationDate
	saved.UseCount = cur.UseCount
	if saved.UID == "" {
		saved.UID = cur.UID
	}
	saved.LastModified = store.NextModified(cur.LastModified)
	s.contacts[c.FolderID][c.ID] = saved
	return saved.Clone(), nil
}

// DeleteContact permanently removes a contact.
func (s *Store) DeleteContact(ctx context.Context, folderID, id string) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if folderID == "" {
		return store.ErrInvalidFolderID
	}
	if id == "" {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[folderID][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.contacts[folderID], id)
	return nil
}

// IncrementUseCount adds one to a contact's use count.
func (s *Store) IncrementUseCount(ctx context.Context, folderID, id string) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if folderID == "" {
		return store.ErrInvalidFolderID
	}
	if id == "" {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[folderID][id]
	if !ok {
		return store.ErrNotFound
	}
	c.UseCount++
	return nil
}
