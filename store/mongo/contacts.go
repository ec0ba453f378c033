package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

var (
	keyID       = contact.FieldObjectID.Column()
	keyFolder   = contact.FieldFolderID.Column()
	keyModified = contact.FieldLastModified.Column()
	keyUseCount = contact.FieldUseCount.Column()
	keyOwner    = contact.FieldCreatedBy.Column()
)

func contactFilter(folderID, id string) bson.M {
	return bson.M{keyFolder: folderID, keyID: id}
}

func (s *Store) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*contact.Contact, error) {
	var docs []bson.Raw
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	out := make([]*contact.Contact, 0, len(docs))
	for _, raw := range docs {
		c, err := decodeContact(raw, s.fields)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
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
	return s.getContact(ctx, folderID, id)
}

func (s *Store) getContact(ctx context.Context, folderID, id string) (*contact.Contact, error) {
	raw, err := s.contacts.FindOne(ctx, contactFilter(folderID, id)).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return decodeContact(raw, s.fields)
}

// sortSpec returns the sort document for opts.
func sortSpec(opts store.ListOptions) bson.D {
	dir := 1
	if opts.SortOrder == store.SortDesc {
		dir = -1
	}
	key := sortKeyField
	if opts.SortBy != 0 {
		key = opts.SortBy.Column()
		if opts.SortBy.Kind() == contact.KindBool {
			// true first when ascending
			dir = -dir
		}
	}
	return bson.D{
		bson.E{Key: key, Value: dir},
		bson.E{Key: keyID, Value: 1},
	}
}

func (s *Store) page(ctx context.Context, filter bson.M, opts store.ListOptions) (*store.ContactList, error) {
	if opts.CreatedBy != "" {
		filter = bson.M{"$and": []bson.M{filter, {keyOwner: opts.CreatedBy}}}
	}
	total, err := s.contacts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	findOpts := mongoopts.Find().SetSort(sortSpec(opts))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.SortBy != 0 && opts.SortBy.Kind() == contact.KindString {
		// strength 2 ignores case
		findOpts.SetCollation(&mongoopts.Collation{Locale: "en", Strength: 2})
	}

	cursor, err := s.contacts.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	cs, err := s.decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
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
	return s.page(ctx, bson.M{keyFolder: folderID}, opts)
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

	and := []bson.M{{keyFolder: bson.M{"$in": q.Folders}}}
	if !q.MatchesAll() {
		pattern := q.Regexp()
		ors := make([]bson.M, 0, len(q.SearchFields()))
		for _, f := range q.SearchFields() {
			ors = append(ors, bson.M{f.Column(): bson.M{"$regex": pattern, "$options": "is"}})
		}
		and = append(and, bson.M{"$or": ors})
	}
	if q.EmailOnly {
		and = append(and, bson.M{"$or": []bson.M{
			{contact.FieldEmail1.Column(): bson.M{"$gt": ""}},
			{contact.FieldEmail2.Column(): bson.M{"$gt": ""}},
			{contact.FieldEmail3.Column(): bson.M{"$gt": ""}},
			{contact.FieldMarkAsDistributionList.Column(): true},
			{contact.FieldDistributionList.Column(): bson.M{"$exists": true}},
		}})
	}
	return s.page(ctx, bson.M{"$and": and}, q.Options)
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

	filter := bson.M{keyFolder: folderID, keyModified: bson.M{"$gt": store.Timestamp(since)}}
	findOpts := mongoopts.Find().SetSort(bson.D{
		bson.E{Key: keyModified, Value: 1},
		bson.E{Key: keyID, Value: 1},
	})
	cursor, err := s.contacts.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("modified since: %w", err)
	}
	return s.decodeAll(ctx, cursor)
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

	doc, _, err := encodeFields(saved, s.fields)
	if err != nil {
		return nil, err
	}
	if _, err := s.contacts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, store.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return saved, nil
}

// preserved are the keys UpdateContact never overwrites.
var preserved = map[contact.Field]bool{
	contact.FieldObjectID:     true,
	contact.FieldFolderID:     true,
	contact.FieldCreatedBy:    true,
	contact.FieldCreationDate: true,
	contact.FieldUseCount:     true,
}

// updateAttempts bounds the compare-and-swap loop of UpdateContact when
// concurrent writers keep moving the timestamp.
const updateAttempts = 5

// UpdateContact replaces a stored contact unless it changed after
// clientLastModified. The write is a compare-and-swap on the stored
// timestamp, which it moves strictly forward, so a writer holding the
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

	var fields []contact.Field
	for _, f := range s.fields {
		if preserved[f] || (f == contact.FieldUID && c.UID == "") {
			continue
		}
		fields = append(fields, f)
	}
	client := store.Timestamp(clientLastModified)

	for range updateAttempts {
		cur, err := s.getContact(ctx, c.FolderID, c.ID)
		if err != nil {
			return nil, err
		}
		if !clientLastModified.IsZero() && cur.LastModified.After(client) {
			return nil, store.ErrConflict
		}

		saved := c.Clone()
		saved.LastModified = store.NextModified(cur.LastModified)
		set, unset, err := encodeFields(saved, fields)
		if err != nil {
			return nil, err
		}
		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}

		filter := contactFilter(saved.FolderID, saved.ID)
		filter[keyModified] = cur.LastModified

		opts := mongoopts.FindOneAndUpdate().SetReturnDocument(mongoopts.After)
		raw, err := s.contacts.FindOneAndUpdate(ctx, filter, update, opts).Raw()
		if err == nil {
			return decodeContact(raw, s.fields)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("update contact: %w", err)
		}
		// Another writer won the swap or removed the contact; look again.
	}
	return nil, store.ErrConflict
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

	res, err := s.contacts.DeleteOne(ctx, contactFilter(folderID, id))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementUseCount atomically adds one to a contact's use count.
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

	res, err := s.contacts.UpdateOne(ctx, contactFilter(folderID, id), bson.M{"$inc": bson.M{keyUseCount: 1}})
	if err != nil {
		return fmt.Errorf("increment use count: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
