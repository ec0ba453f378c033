package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/store"
)

// accountRow is the stored form of an account. The description itself is
// kept as JSON in data; the other columns exist for lookups and
// constraints.
type accountRow struct {
	UserID         string  `db:"user_id"`
	ID             int     `db:"id"`
	Name           string  `db:"name"`
	PrimaryAddress string  `db:"primary_address"`
	AddressKey     *string `db:"address_key"`
	Data           string  `db:"data"`
	LastModified   int64   `db:"last_modified"`
}

const accountCols = "user_id, id, name, primary_address, address_key, data, last_modified"

func toRow(a *account.Account) (*accountRow, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	row := &accountRow{
		UserID:         a.UserID,
		ID:             a.ID,
		Name:           a.Name,
		PrimaryAddress: a.PrimaryAddress,
		Data:           string(data),
		LastModified:   a.LastModified.UnixMilli(),
	}
	if a.PrimaryAddress != "" {
		key := strings.ToLower(a.PrimaryAddress)
		row.AddressKey = &key
	}
	return row, nil
}

func (r *accountRow) account() (*account.Account, error) {
	a := &account.Account{}
	if err := json.Unmarshal([]byte(r.Data), a); err != nil {
		return nil, fmt.Errorf("decode account %s/%d: %w", r.UserID, r.ID, err)
	}
	a.UserID, a.ID = r.UserID, r.ID
	a.LastModified = time.UnixMilli(r.LastModified).UTC()
	return a, nil
}

func (s *Store) getAccount(ctx context.Context, q sqlx.QueryerContext, userID string, id int) (*account.Account, error) {
	var row accountRow
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ? AND id = ?`, accountCols, s.opts.accountsTable)
	if err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(query), userID, id); err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return row.account()
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
	return s.getAccount(ctx, s.db, userID, id)
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

	var rows []accountRow
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ? ORDER BY id`, accountCols, s.opts.accountsTable)
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*account.Account, 0, len(rows))
	for i := range rows {
		a, err := rows[i].account()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// InsertAccount stores acc under the next free ID of its user. Two
// concurrent inserts for one user race on the primary key; the loser gets
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var used []int
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = ?`, s.opts.accountsTable)
	if err := tx.SelectContext(ctx, &used, tx.Rebind(query), acc.UserID); err != nil {
		return 0, fmt.Errorf("select account ids: %w", err)
	}

	saved := acc.Clone()
	saved.ID = store.NextAccountID(used)
	saved.LastModified = store.Now()
	row, err := toRow(saved)
	if err != nil {
		return 0, err
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (:user_id, :id, :name, :primary_address, :address_key, :data, :last_modified)`,
		s.opts.accountsTable, accountCols)
	if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
		if s.dialect.isUnique(err) {
			return 0, store.ErrDuplicateEntry
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := s.getAccount(ctx, tx, userID, acc.ID)
	if err != nil {
		return err
	}
	saved, err := store.MergeAccount(cur, acc, attrs)
	if err != nil {
		return err
	}
	row, err := toRow(saved)
	if err != nil {
		return err
	}

	update := fmt.Sprintf(`UPDATE %s SET name = :name, primary_address = :primary_address,
		address_key = :address_key, data = :data, last_modified = :last_modified
		WHERE user_id = :user_id AND id = :id`, s.opts.accountsTable)
	if _, err := tx.NamedExecContext(ctx, update, row); err != nil {
		if s.dialect.isUnique(err) {
			return store.ErrDuplicateEntry
		}
		return fmt.Errorf("update account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
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

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND id = ?`, s.opts.accountsTable)
	return s.execOne(ctx, "delete account", query, userID, id)
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

	var row struct {
		UserID string `db:"user_id"`
		ID     int    `db:"id"`
	}
	query := fmt.Sprintf(`SELECT user_id, id FROM %s WHERE address_key = ? ORDER BY user_id, id LIMIT 1`, s.opts.accountsTable)
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), strings.ToLower(address)); err != nil {
		if isNoRows(err) {
			return "", 0, store.ErrNotFound
		}
		return "", 0, fmt.Errorf("resolve primary address: %w", err)
	}
	return row.UserID, row.ID, nil
}

// InvalidateAccount is a no-op; the database is the source of truth.
func (s *Store) InvalidateAccount(ctx context.Context, userID string, id int) error {
	return s.checkConnected()
}

// InvalidateAccounts is a no-op; the database is the source of truth.
func (s *Store) InvalidateAccounts(ctx context.Context, userID string) error {
	return s.checkConnected()
}
