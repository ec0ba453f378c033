package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

var (
	colID       = quote(contact.FieldObjectID.Column())
	colFolder   = quote(contact.FieldFolderID.Column())
	colModified = quote(contact.FieldLastModified.Column())
	colUseCount = quote(contact.FieldUseCount.Column())
	colOwner    = quote(contact.FieldCreatedBy.Column())
)

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

func (s *Store) scanContacts(ctx context.Context, q queryer, query string, args ...any) ([]*contact.Contact, error) {
	rows, err := q.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contact.Contact
	for rows.Next() {
		dest := scanTargets(s.fields)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c, err := decodeContact(s.fields, dest)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	return s.getContact(ctx, s.db, folderID, id)
}

func (s *Store) getContact(ctx context.Context, q queryer, folderID, id string) (*contact.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`,
		s.selectCols, s.opts.contactsTable, colFolder, colID)
	cs, err := s.scanContacts(ctx, q, query, folderID, id)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if len(cs) == 0 {
		return nil, store.ErrNotFound
	}
	return cs[0], nil
}

// orderBy renders the ORDER BY clause for opts. Unset values sort last.
func orderBy(opts store.ListOptions) string {
	dir := "ASC"
	if opts.SortOrder == store.SortDesc {
		dir = "DESC"
	}
	if opts.SortBy == 0 {
		key := quote(sortKeyColumn)
		return fmt.Sprintf("%s = '', %s %s, %s", key, key, dir, colID)
	}
	col := quote(opts.SortBy.Column())
	switch opts.SortBy.Kind() {
	case contact.KindString:
		return fmt.Sprintf("%s = '', lower(%s) %s, %s", col, col, dir, colID)
	case contact.KindInt:
		return fmt.Sprintf("%s = 0, %s %s, %s", col, col, dir, colID)
	case contact.KindBool:
		// true first when ascending
		if dir == "ASC" {
			dir = "DESC"
		} else {
			dir = "ASC"
		}
		return fmt.Sprintf("%s %s, %s", col, dir, colID)
	default:
		return fmt.Sprintf("%s IS NULL, %s %s, %s", col, col, dir, colID)
	}
}

// page runs a filtered count and the ordered, paged select.
func (s *Store) page(ctx context.Context, where string, args []any, opts store.ListOptions) (*store.ContactList, error) {
	if opts.CreatedBy != "" {
		where = "(" + where + ") AND " + colOwner + " = ?"
		args = append(args, opts.CreatedBy)
	}

	var total int64
	count := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, s.opts.contactsTable, where)
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(count), args...); err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		s.selectCols, s.opts.contactsTable, where, orderBy(opts))
	cs, err := s.scanContacts(ctx, s.db, query, append(args, limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	for i, c := range cs {
		cs[i] = store.Project(c, opts.Fields)
	}
	return &store.ContactList{
		Contacts: cs,
		Total:    total,
		HasMore:  int64(opts.Offset+len(cs)) < total,
	}, nil
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	return s.page(ctx, colFolder+" = ?", []any{folderID}, opts)
}

// SearchContacts returns the contacts matching q.
func (s *Store) SearchContacts(ctx context.Context, q store.ContactQuery) (*store.ContactList, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	conds := []string{colFolder + " IN (?)"}
	args := []any{q.Folders}
	if !q.MatchesAll() {
		like := q.LikePattern()
		var ors []string
		for _, f := range q.SearchFields() {
			ors = append(ors, fmt.Sprintf(`lower(%s) LIKE ? ESCAPE '\'`, quote(f.Column())))
			args = append(args, like)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if q.EmailOnly {
		conds = append(conds, fmt.Sprintf("(%s <> '' OR %s <> '' OR %s <> '' OR %s OR %s IS NOT NULL)",
			quote(contact.FieldEmail1.Column()),
			quote(contact.FieldEmail2.Column()),
			quote(contact.FieldEmail3.Column()),
			quote(contact.FieldMarkAsDistributionList.Column()),
			quote(contact.FieldDistributionList.Column())))
	}

	where, args, err := sqlx.In(strings.Join(conds, " AND "), args...)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return s.page(ctx, where, args, q.Options)
}

// ModifiedSince returns the contacts of a folder changed after since.
func (s *Store) ModifiedSince(ctx context.Context, folderID string, since time.Time) ([]*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, store.ErrInvalidFolderID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s > ? ORDER BY %s, %s`,
		s.selectCols, s.opts.contactsTable, colFolder, colModified, colModified, colID)
	cs, err := s.scanContacts(ctx, s.db, query, folderID, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("modified since: %w", err)
	}
	return cs, nil
}

// CreateContact persists a new contact.
func (s *Store) CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if c == nil || c.FolderID == "" {
		return nil, store.ErrInvalidFolderID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

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

	args, err := encodeContact(saved, s.fields)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (%s)`,
		s.opts.contactsTable, s.selectCols, quote(sortKeyColumn), placeholders(len(args)))
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		if s.dialect.isUnique(err) {
			return nil, store.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return saved, nil
}

// preserved are the columns UpdateContact never overwrites.
// LastModified is advanced by the statement itself.
var preserved = map[contact.Field]bool{
	contact.FieldObjectID:     true,
	contact.FieldFolderID:     true,
	contact.FieldCreatedBy:    true,
	contact.FieldCreationDate: true,
	contact.FieldUseCount:     true,
	contact.FieldLastModified: true,
}

// UpdateContact replaces a stored contact unless it changed after
// clientLastModified. The check is part of the UPDATE statement, which
// also moves last_modified strictly forward so that a writer holding the
// previous timestamp always conflicts.
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	saved := c.Clone()

	var fields []contact.Field
	for _, f := range s.fields {
		if preserved[f] || (f == contact.FieldUID && saved.UID == "") {
			continue
		}
		fields = append(fields, f)
	}
	args, err := encodeContact(saved, fields)
	if err != nil {
		return nil, err
	}
	sets := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		sets = append(sets, quote(f.Column())+" = ?")
	}
	sets = append(sets, quote(sortKeyColumn)+" = ?")
	now := store.Now().UnixMilli()
	sets = append(sets, fmt.Sprintf("%s = CASE WHEN %s >= ? THEN %s + 1 ELSE ? END",
		colModified, colModified, colModified))
	args = append(args, now, now)

	where := fmt.Sprintf("%s = ? AND %s = ?", colFolder, colID)
	args = append(args, saved.FolderID, saved.ID)
	if !clientLastModified.IsZero() {
		where += " AND " + colModified + " <= ?"
		args = append(args, store.Timestamp(clientLastModified).UnixMilli())
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s`, s.opts.contactsTable, strings.Join(sets, ", "), where)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.getContact(ctx, s.db, saved.FolderID, saved.ID); err != nil {
			return nil, err
		}
		return nil, store.ErrConflict
	}
	return s.getContact(ctx, s.db, saved.FolderID, saved.ID)
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, s.opts.contactsTable, colFolder, colID)
	return s.execOne(ctx, "delete contact", query, folderID, id)
}

// IncrementUseCount adds one to a contact's use count in place.
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

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = ? AND %s = ?`,
		s.opts.contactsTable, colUseCount, colUseCount, colFolder, colID)
	return s.execOne(ctx, "increment use count", query, folderID, id)
}

// execOne runs a statement that must affect exactly one row.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
