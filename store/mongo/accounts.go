package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/store"
)

// accountDoc is the stored form of an account. AddressKey is absent for
// accounts without a primary address so the partial unique index skips
// them.
type accountDoc struct {
	UserID     string           `bson:"user_id"`
	ID         int              `bson:"id"`
	AddressKey *string          `bson:"address_key,omitempty"`
	Account    *account.Account `bson:"account"`
}

func toDoc(a *account.Account) *accountDoc {
	d := &accountDoc{UserID: a.UserID, ID: a.ID, Account: a}
	if a.PrimaryAddress != "" {
		key := strings.ToLower(a.PrimaryAddress)
		d.AddressKey = &key
	}
	return d
}

func (d *accountDoc) account() *account.Account {
	a := d.Account
	if a == nil {
		a = &account.Account{}
	}
	a.UserID, a.ID = d.UserID, d.ID
	a.LastModified = a.LastModified.UTC()
	return a
}

func accountFilter(userID string, id int) bson.M {
	return bson.M{"user_id": userID, "id": id}
}

// GetAccount retrieves an account by user and ID.
func (s *Store) GetAccount(ctx context.Context, userID string, id int) (*account.Account, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, store.ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	return s.getAccount(ctx, userID, id)
}

func (s *Store) getAccount(ctx context.Context, userID string, id int) (*account.Account, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, accountFilter(userID, id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.account(), nil
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cursor, err := s.accounts.Find(ctx, bson.M{"user_id": userID},
		mongoopts.Find().SetSort(bson.D{bson.E{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	out := make([]*account.Account, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].account())
	}
	return out, nil
}

// InsertAccount stores acc under the next free ID of its user. Concurrent
// inserts race on the unique (user_id, id) index; the loser gets
// ErrDuplicateEntry.
func (s *Store) InsertAccount(ctx context.Context, acc *account.Account) (int, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if acc == nil || acc.UserID == "" {
		return 0, store.ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cursor, err := s.accounts.Find(ctx, bson.M{"user_id": acc.UserID},
		mongoopts.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return 0, fmt.Errorf("select account ids: %w", err)
	}
	var ids []struct {
		ID int `bson:"id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return 0, fmt.Errorf("decode account ids: %w", err)
	}
	used := make([]int, 0, len(ids))
	for _, x := range ids {
		used = append(used, x.ID)
	}

	saved := acc.Clone()
	saved.ID = store.NextAccountID(used)
	saved.LastModified = store.Now()
	if _, err := s.accounts.InsertOne(ctx, toDoc(saved)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, store.ErrDuplicateEntry
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cur, err := s.getAccount(ctx, userID, acc.ID)
	if err != nil {
		return err
	}
	saved, err := store.MergeAccount(cur, acc, attrs)
	if err != nil {
		return err
	}
	res, err := s.accounts.ReplaceOne(ctx, accountFilter(userID, acc.ID), toDoc(saved))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEntry
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	res, err := s.accounts.DeleteOne(ctx, accountFilter(userID, id))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	opts := mongoopts.FindOne().
		SetSort(bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "id", Value: 1}}).
		SetProjection(bson.M{"user_id": 1, "id": 1})
	var doc accountDoc
	err := s.accounts.FindOne(ctx, bson.M{"address_key": strings.ToLower(address)}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", 0, store.ErrNotFound
		}
		return "", 0, fmt.Errorf("resolve primary address: %w", err)
	}
	return doc.UserID, doc.ID, nil
}

// InvalidateAccount is a no-op; the collection is the source of truth.
func (s *Store) InvalidateAccount(ctx context.Context, userID string, id int) error {
	return s.checkConnected()
}

// InvalidateAccounts is a no-op; the collection is the source of truth.
func (s *Store) InvalidateAccounts(ctx context.Context, userID string) error {
	return s.checkConnected()
}
