// Package store provides the storage facades for contacts, mail accounts
// and contact images. Implementations are in store/memory, store/sqlite,
// store/postgres and store/mongo; store/cached adds a Redis read cache in
// front of an AccountStore and store/image holds the image file backends.
//
// # Architectural Principle: No Distributed Locks
//
// Stores never coordinate writers through an external lock service.
// Concurrency is handled by the database:
//
//  1. Optimistic Concurrency: every contact carries a last-modified
//     timestamp. UpdateContact takes the timestamp the client last saw and
//     fails with ErrConflict when the stored copy is newer. The check and
//     the write happen in one statement (UPDATE ... WHERE last_modified <= $n,
//     findOneAndUpdate with a filter on last_modified).
//
//  2. Unique Constraints: account ids are unique per user and primary
//     addresses unique per user. A concurrent InsertAccount that loses the
//     race gets ErrDuplicateEntry and may retry.
//
//  3. Atomic Counters: IncrementUseCount is a single UPDATE ... SET
//     use_count = use_count + 1 or $inc, never read-modify-write.
//
// Example - updating a contact edited in a client:
//
//	// WRONG: read, compare in the application, then write
//	cur, _ := s.GetContact(ctx, folder, id)
//	if cur.LastModified.After(seen) { return conflict }
//	s.UpdateContact(ctx, c, time.Time{})
//
//	// CORRECT: let the store compare and write atomically
//	_, err := s.UpdateContact(ctx, c, seen)
//	if errors.Is(err, store.ErrConflict) { reload and retry }
package store

import (
	"context"
	"time"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
)

// ContactStore is the storage interface for contacts.
//
// All operations must be safe for concurrent use. Implementations must use
// database-level atomicity rather than external locking mechanisms. See
// package documentation for details.
type ContactStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	ContactReader
	ContactWriter
}

// ContactReader provides read operations for contacts.
type ContactReader interface {
	// GetContact retrieves a contact by folder and ID.
	// Returns ErrNotFound if the contact doesn't exist in that folder.
	GetContact(ctx context.Context, folderID, id string) (*contact.Contact, error)

	// ListContacts returns the contacts of a folder, sorted and paged by opts.
	ListContacts(ctx context.Context, folderID string, opts ListOptions) (*ContactList, error)

	// SearchContacts returns the contacts matching q across q.Folders.
	SearchContacts(ctx context.Context, q ContactQuery) (*ContactList, error)

	// ModifiedSince returns the contacts of a folder created or changed
	// strictly after since, oldest first.
	ModifiedSince(ctx context.Context, folderID string, since time.Time) ([]*contact.Contact, error)
}

// ContactWriter provides write operations for contacts.
type ContactWriter interface {
	// CreateContact persists a new contact. The store assigns the ID when
	// empty and sets CreationDate and LastModified.
	// Returns the saved contact.
	CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error)

	// UpdateContact replaces a stored contact. When clientLastModified is not
	// zero and the stored contact changed after it, ErrConflict is returned
	// and nothing is written. CreationDate and UseCount are kept from the
	// stored copy.
	UpdateContact(ctx context.Context, c *contact.Contact, clientLastModified time.Time) (*contact.Contact, error)

	// DeleteContact permanently removes a contact.
	// Returns ErrNotFound if the contact doesn't exist.
	DeleteContact(ctx context.Context, folderID, id string) error

	// IncrementUseCount atomically adds one to the contact's use count.
	// LastModified is not touched.
	IncrementUseCount(ctx context.Context, folderID, id string) error
}

// AccountStore is the storage interface for mail accounts. Accounts are
// numbered per user; the first account a user gets is the default account
// with ID account.DefaultAccountID.
type AccountStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// GetAccount retrieves an account by user and ID.
	// Returns ErrNotFound if the account doesn't exist.
	GetAccount(ctx context.Context, userID string, id int) (*account.Account, error)

	// GetDefaultAccount retrieves the user's default account.
	GetDefaultAccount(ctx context.Context, userID string) (*account.Account, error)

	// ListAccounts returns all accounts of a user ordered by ID.
	ListAccounts(ctx context.Context, userID string) ([]*account.Account, error)

	// InsertAccount stores acc for acc.UserID and returns the assigned ID.
	// The first account of a user gets account.DefaultAccountID, later ones
	// the next free ID.
	InsertAccount(ctx context.Context, acc *account.Account) (int, error)

	// UpdateAccount writes the listed attributes of acc to the stored
	// account with acc.ID. An empty attrs list writes every attribute.
	UpdateAccount(ctx context.Context, userID string, acc *account.Account, attrs []account.Attribute) error

	// DeleteAccount removes an account.
	// Returns ErrDefaultAccount for the default account.
	DeleteAccount(ctx context.Context, userID string, id int) error

	// ResolvePrimaryAddress finds the account whose primary address equals
	// address, ignoring case. Returns ErrNotFound if no account has it.
	ResolvePrimaryAddress(ctx context.Context, address string) (userID string, id int, err error)

	// InvalidateAccount drops any cached copy of one account.
	InvalidateAccount(ctx context.Context, userID string, id int) error

	// InvalidateAccounts drops every cached account of a user.
	InvalidateAccounts(ctx context.Context, userID string) error
}

// ContactList is a page of contacts.
type ContactList struct {
	Contacts []*contact.Contact
	Total    int64
	HasMore  bool
}

// Timestamp normalises t the way every store persists it: UTC with
// millisecond precision. Stores apply it to CreationDate and LastModified
// so values compare equal after a round trip through any backend.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Now returns the current time as a store timestamp.
func Now() time.Time {
	return Timestamp(time.Now())
}

// NextModified returns the timestamp for a write replacing a record last
// modified at prev: the current time, or prev plus one millisecond when
// the clock has not moved past prev. Successive writes therefore never
// share a timestamp.
func NextModified(prev time.Time) time.Time {
	now := Now()
	if next := Timestamp(prev).Add(time.Millisecond); now.Before(next) {
		return next
	}
	return now
}

// Page applies offset and limit to a full result and fills a ContactList.
// Backends that cannot page in the query use it after filtering.
func Page(all []*contact.Contact, offset, limit int) *ContactList {
	total := int64(len(all))
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return &ContactList{
		Contacts: all[offset:end],
		Total:    total,
		HasMore:  end < len(all),
	}
}
