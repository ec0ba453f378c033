package groupware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// AddressBook provides a user's contact operations.
// Contacts are addressed by folder and ID.
type AddressBook interface {
	// UserID returns the user this address book acts for.
	UserID() string

	// Get retrieves a contact.
	Get(ctx context.Context, folderID, id string) (*contact.Contact, error)
	// List returns a page of the contacts of a folder.
	// A zero limit selects the default page size.
	List(ctx context.Context, folderID string, opts ListOptions) (*ContactList, error)
	// Search returns a page of the contacts matching q.
	Search(ctx context.Context, q ContactQuery) (*ContactList, error)
	// Stream returns an iterator over every contact matching q.
	Stream(ctx context.Context, q ContactQuery, opts StreamOptions) (ContactIterator, error)
	// ModifiedSince returns the contacts of a folder changed after since.
	ModifiedSince(ctx context.Context, folderID string, since time.Time) ([]*contact.Contact, error)

	// Create validates and stores a new contact in c.FolderID. An empty
	// display name is computed from the other name fields.
	Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	// Update writes the listed fields of c to the stored contact, or every
	// user field when none are listed. A non-zero clientLastModified makes
	// the update fail with ErrConflict if the contact changed after it.
	Update(ctx context.Context, c *contact.Contact, clientLastModified time.Time, fields ...contact.Field) (*contact.Contact, error)
	// Delete removes a contact and its image file.
	Delete(ctx context.Context, folderID, id string) error
	// BulkDelete deletes several contacts of a folder in parallel.
	BulkDelete(ctx context.Context, folderID string, ids []string) (*BulkResult, error)

	// FindSimilar returns the contacts in folderIDs that likely describe the
	// same person as c, best match first. Without folders c.FolderID is
	// searched.
	FindSimilar(ctx context.Context, c *contact.Contact, folderIDs ...string) ([]*contact.Contact, error)
	// Merge copies the fields of source into target and deletes source.
	// Without overwrite only fields unset in target are filled.
	Merge(ctx context.Context, folderID, targetID, sourceID string, overwrite bool) (*contact.Contact, error)
	// Autocomplete returns contacts with an e-mail address whose names or
	// addresses start with prefix, most used first.
	Autocomplete(ctx context.Context, folderIDs []string, prefix string, limit int) ([]*contact.Contact, error)
	// RecordUse counts one use of a contact, e.g. as a mail recipient.
	RecordUse(ctx context.Context, folderID, id string) error

	// ExportVCard writes every contact of a folder as vCard and returns
	// the number written.
	ExportVCard(ctx context.Context, w io.Writer, folderID string) (int, error)
	// ImportVCard creates a contact per card. Unless force is set, cards
	// similar to a contact already in the folder are skipped.
	ImportVCard(ctx context.Context, folderID string, r io.Reader, force bool) (*ImportResult, error)

	// SetImage replaces a contact's image. With an image store configured
	// the file is uploaded and the contact keeps its URI; otherwise the
	// bytes are stored inline.
	SetImage(ctx context.Context, folderID, id, filename, contentType string, r io.Reader) (*contact.Contact, error)
	// LoadImage returns the contact's image and its content type.
	// Caller is responsible for closing the reader.
	LoadImage(ctx context.Context, folderID, id string) (io.ReadCloser, string, error)
}

// ImportResult reports the outcome of ImportVCard.
type ImportResult struct {
	// Created holds the stored contacts in card order.
	Created []*contact.Contact
	// Skipped holds the cards similar to an existing contact.
	Skipped []*contact.Contact
	// Failed maps the index of each rejected card among the readable
	// cards to its error.
	Failed map[int]error
	// Unreadable reports the cards that could not be converted at all.
	Unreadable error
}

// Total returns the number of cards read.
func (r *ImportResult) Total() int {
	return len(r.Created) + len(r.Skipped) + len(r.Failed)
}

type addressBook struct {
	userID      string
	service     *service
	validUserID bool
}

// UserID returns the user ID of this address book.
func (b *addressBook) UserID() string {
	return b.userID
}

// checkAccess verifies the address book is ready for operations.
func (b *addressBook) checkAccess() error {
	if atomic.LoadInt32(&b.service.state) != stateConnected {
		return ErrNotConnected
	}
	if !b.validUserID {
		return ErrInvalidUserID
	}
	return nil
}

func (b *addressBook) Get(ctx context.Context, folderID, id string) (c *contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactGet, b.userID,
		attribute.String("folder_id", folderID), attribute.String("contact_id", id))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	return b.get(ctx, folderID, id)
}

func (b *addressBook) get(ctx context.Context, folderID, id string) (*contact.Contact, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	c, err := b.service.contacts.GetContact(ctx, folderID, id)
	if err != nil {
		return nil, storeError("get contact", err)
	}
	if !b.canAccess(c) {
		return nil, ErrUnauthorized
	}
	return c, nil
}

func (b *addressBook) canAccess(c *contact.Contact) bool {
	return c.CreatedBy == b.userID
}

func (b *addressBook) List(ctx context.Context, folderID string, opts ListOptions) (list *ContactList, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactList, b.userID,
		attribute.String("folder_id", folderID))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	opts.Limit = b.service.opts.pageLimit(opts.Limit)
	opts.CreatedBy = b.userID
	list, err = b.service.contacts.ListContacts(ctx, folderID, opts)
	if err != nil {
		return nil, storeError("list contacts", err)
	}
	return list, nil
}

func (b *addressBook) Search(ctx context.Context, q ContactQuery) (list *ContactList, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactSearch, b.userID,
		attribute.Int("folders", len(q.Folders)))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	q.Options.Limit = b.service.opts.pageLimit(q.Options.Limit)
	q.Options.CreatedBy = b.userID
	list, err = b.service.contacts.SearchContacts(ctx, q)
	if err != nil {
		return nil, storeError("search contacts", err)
	}
	return list, nil
}

func (b *addressBook) ModifiedSince(ctx context.Context, folderID string, since time.Time) (cs []*contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactList, b.userID,
		attribute.String("folder_id", folderID), attribute.Bool("delta", true))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	all, err := b.service.contacts.ModifiedSince(ctx, folderID, since)
	if err != nil {
		return nil, storeError("modified since", err)
	}
	cs = all[:0]
	for _, c := range all {
		if b.canAccess(c) {
			cs = append(cs, c)
		}
	}
	return cs, nil
}

// all returns every contact of the given folders.
func (b *addressBook) all(ctx context.Context, folderIDs ...string) ([]*contact.Contact, error) {
	list, err := b.service.contacts.SearchContacts(ctx, ContactQuery{
		Folders: folderIDs,
		Options: ListOptions{CreatedBy: b.userID},
	})
	if err != nil {
		return nil, storeError("list contacts", err)
	}
	return list.Contacts, nil
}

func (b *addressBook) Create(ctx context.Context, c *contact.Contact) (saved *contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactCreate, b.userID)
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ValidationError{Field: "contact", Message: "contact is nil"}
	}
	if err := validateFolderID(c.FolderID); err != nil {
		return nil, err
	}

	release, err := b.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return b.create(ctx, c)
}

// create runs the save hooks and stores a new contact. The caller holds a
// write slot.
func (b *addressBook) create(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	draft := c.Clone()
	draft.CreatedBy = b.userID
	draft.ModifiedBy = b.userID
	draft.UseCount = 0

	if err := b.service.plugins.beforeSaveContact(ctx, b.userID, draft); err != nil {
		return nil, err
	}
	if err := validateContact(draft, b.service.opts.maxImageSize); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.DisplayName) == "" {
		draft.DisplayName = contact.DisplayNameOf(draft)
	}

	saved, err := b.service.contacts.CreateContact(ctx, draft)
	if err != nil {
		return nil, storeError("create contact", err)
	}
	b.service.plugins.afterSaveContact(ctx, b.userID, saved)

	if err := publish(ctx, b.service, b.service.events.ContactCreated, "ContactCreated", saved.ID, ContactCreatedEvent{
		UserID:    b.userID,
		FolderID:  saved.FolderID,
		ContactID: saved.ID,
		CreatedAt: saved.CreationDate,
	}); err != nil {
		return saved, err
	}
	return saved, nil
}

// editableFields returns fields without the identity fields, or every
// user field when fields is empty.
func editableFields(fields []contact.Field) ([]contact.Field, error) {
	if len(fields) == 0 {
		fields = contact.Fields()
	}
	out := make([]contact.Field, 0, len(fields))
	for _, f := range fields {
		if !f.Valid() {
			return nil, &ValidationError{Field: f.String(), Message: "unknown field", Err: contact.ErrUnknownField}
		}
		if f.IsIdentity() {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *addressBook) Update(ctx context.Context, c *contact.Contact, clientLastModified time.Time, fields ...contact.Field) (saved *contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactUpdate, b.userID)
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ValidationError{Field: "contact", Message: "contact is nil"}
	}
	if err := validateFolderID(c.FolderID); err != nil {
		return nil, err
	}
	fields, err = editableFields(fields)
	if err != nil {
		return nil, err
	}

	release, err := b.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := b.get(ctx, c.FolderID, c.ID)
	if err != nil {
		return nil, err
	}
	next := stored.Clone()
	if err := contact.Copy(next, c, fields); err != nil {
		return nil, &ValidationError{Field: "contact", Message: "cannot copy fields", Err: err}
	}
	return b.save(ctx, stored, next, clientLastModified)
}

// save runs the save hooks and writes next over stored. The caller holds
// a write slot.
func (b *addressBook) save(ctx context.Context, stored, next *contact.Contact, clientLastModified time.Time) (*contact.Contact, error) {
	next.ModifiedBy = b.userID
	if err := b.service.plugins.beforeSaveContact(ctx, b.userID, next); err != nil {
		return nil, err
	}
	if err := validateContact(next, b.service.opts.maxImageSize); err != nil {
		return nil, err
	}
	if strings.TrimSpace(next.DisplayName) == "" {
		next.DisplayName = contact.DisplayNameOf(next)
	}

	changed := contact.Diff(stored, next)
	saved, err := b.service.contacts.UpdateContact(ctx, next, clientLastModified)
	if err != nil {
		return nil, storeError("update contact", err)
	}
	b.service.plugins.afterSaveContact(ctx, b.userID, saved)

	names := make([]string, 0, len(changed))
	for _, f := range changed {
		if !f.IsIdentity() {
			names = append(names, f.JSONName())
		}
	}
	if err := publish(ctx, b.service, b.service.events.ContactUpdated, "ContactUpdated", saved.ID, ContactUpdatedEvent{
		UserID:    b.userID,
		FolderID:  saved.FolderID,
		ContactID: saved.ID,
		Fields:    names,
		UpdatedAt: saved.LastModified,
	}); err != nil {
		return saved, err
	}
	return saved, nil
}

func (b *addressBook) Delete(ctx context.Context, folderID, id string) (err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactDelete, b.userID,
		attribute.String("folder_id", folderID), attribute.String("contact_id", id))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return err
	}
	if err := validateFolderID(folderID); err != nil {
		return err
	}

	release, err := b.service.beginWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	c, err := b.get(ctx, folderID, id)
	if err != nil {
		return err
	}
	return b.remove(ctx, c, true)
}

// remove deletes c and, with dropImage, its image file. The caller holds
// a write slot.
func (b *addressBook) remove(ctx context.Context, c *contact.Contact, dropImage bool) error {
	if err := b.service.contacts.DeleteContact(ctx, c.FolderID, c.ID); err != nil {
		return storeError("delete contact", err)
	}
	if dropImage {
		b.dropImage(ctx, c.ImageURL)
	}
	return publish(ctx, b.service, b.service.events.ContactDeleted, "ContactDeleted", c.ID, ContactDeletedEvent{
		UserID:    b.userID,
		FolderID:  c.FolderID,
		ContactID: c.ID,
		DeletedAt: time.Now().UTC(),
	})
}

// dropImage deletes an image file that is no longer referenced. Failures
// leave an orphaned file and are only logged.
func (b *addressBook) dropImage(ctx context.Context, uri string) {
	if uri == "" || b.service.images == nil {
		return
	}
	if err := b.service.images.Delete(ctx, uri); err != nil && !errors.Is(err, store.ErrNotFound) {
		b.service.logger.Warn("failed to delete contact image - file may be orphaned",
			"uri", uri, "error", err)
	}
}

func (b *addressBook) BulkDelete(ctx context.Context, folderID string, ids []string) (result *BulkResult, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactBulkDelete, b.userID,
		attribute.String("folder_id", folderID), attribute.Int("count", len(ids)))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	result = runBulk(ctx, ids, b.service.opts.bulkConcurrency, func(ctx context.Context, id string) error {
		return b.Delete(ctx, folderID, id)
	})
	return result, result.Err()
}

func (b *addressBook) FindSimilar(ctx context.Context, c *contact.Contact, folderIDs ...string) (similar []*contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactSimilar, b.userID)
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ValidationError{Field: "contact", Message: "contact is nil"}
	}
	if len(folderIDs) == 0 {
		folderIDs = []string{c.FolderID}
	}
	for _, f := range folderIDs {
		if err := validateFolderID(f); err != nil {
			return nil, err
		}
	}
	candidates, err := b.all(ctx, folderIDs...)
	if err != nil {
		return nil, err
	}
	return contact.FindSimilar(c, candidates), nil
}

func (b *addressBook) Merge(ctx context.Context, folderID, targetID, sourceID string, overwrite bool) (saved *contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactMerge, b.userID,
		attribute.String("folder_id", folderID),
		attribute.String("target_id", targetID),
		attribute.String("source_id", sourceID))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	if targetID == sourceID {
		return nil, ErrSameContact
	}

	release, err := b.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	target, err := b.get(ctx, folderID, targetID)
	if err != nil {
		return nil, err
	}
	source, err := b.get(ctx, folderID, sourceID)
	if err != nil {
		return nil, err
	}

	next := target.Clone()
	contact.Merge(next, source, overwrite)
	saved, err = b.save(ctx, target, next, target.LastModified)
	if err != nil {
		var epe *EventPublishError
		if !errors.As(err, &epe) {
			return nil, err
		}
	}
	// The source image file now belongs to the target when it was merged,
	// and the target's previous file is then unreferenced.
	tookImage := saved.ImageURL == source.ImageURL && source.ImageURL != ""
	if tookImage && target.ImageURL != source.ImageURL {
		b.dropImage(ctx, target.ImageURL)
	}
	if rmErr := b.remove(ctx, source, !tookImage); rmErr != nil {
		return saved, rmErr
	}
	return saved, err
}

func (b *addressBook) Autocomplete(ctx context.Context, folderIDs []string, prefix string, limit int) (cs []*contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactAutocomplete, b.userID)
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = b.service.opts.autocompleteLimit
	}
	limit = b.service.opts.pageLimit(limit)

	list, err := b.service.contacts.SearchContacts(ctx, ContactQuery{
		Folders:   folderIDs,
		Pattern:   strings.TrimSpace(prefix),
		Prefix:    true,
		EmailOnly: true,
		Options:   ListOptions{CreatedBy: b.userID},
	})
	if err != nil {
		return nil, storeError("autocomplete", err)
	}
	cs = list.Contacts
	contact.SortContacts(cs, contact.UseCountComparator(contact.AlphanumericComparator(b.service.opts.collation)))
	if len(cs) > limit {
		cs = cs[:limit]
	}
	return cs, nil
}

func (b *addressBook) RecordUse(ctx context.Context, folderID, id string) (err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactUse, b.userID,
		attribute.String("folder_id", folderID), attribute.String("contact_id", id))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return err
	}
	if err := validateFolderID(folderID); err != nil {
		return err
	}
	if _, err := b.get(ctx, folderID, id); err != nil {
		return err
	}
	if err := b.service.contacts.IncrementUseCount(ctx, folderID, id); err != nil {
		return storeError("increment use count", err)
	}
	return nil
}

func (b *addressBook) ExportVCard(ctx context.Context, w io.Writer, folderID string) (n int, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactExport, b.userID,
		attribute.String("folder_id", folderID))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return 0, err
	}
	if err := validateFolderID(folderID); err != nil {
		return 0, err
	}
	cs, err := b.all(ctx, folderID)
	if err != nil {
		return 0, err
	}
	contact.SortContacts(cs, contact.AlphanumericComparator(b.service.opts.collation))
	if err := contact.EncodeVCards(w, cs); err != nil {
		return 0, fmt.Errorf("encode vcard: %w", err)
	}
	return len(cs), nil
}

func (b *addressBook) ImportVCard(ctx context.Context, folderID string, r io.Reader, force bool) (result *ImportResult, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactImport, b.userID,
		attribute.String("folder_id", folderID), attribute.Bool("force", force))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	cards, decodeErr := contact.DecodeVCards(r)
	if decodeErr != nil && len(cards) == 0 {
		return nil, &ValidationError{Field: "vcard", Message: "cannot decode cards", Err: decodeErr}
	}
	existing, err := b.all(ctx, folderID)
	if err != nil {
		return nil, err
	}

	result = &ImportResult{Failed: make(map[int]error), Unreadable: decodeErr}
	for i, c := range cards {
		c.FolderID = folderID
		c.ID = ""
		if !force && len(contact.FindSimilar(c, existing)) > 0 {
			result.Skipped = append(result.Skipped, c)
			continue
		}
		saved, err := b.Create(ctx, c)
		if err != nil {
			if errors.Is(err, ErrNotConnected) || ctx.Err() != nil {
				return result, err
			}
			if saved == nil {
				result.Failed[i] = err
				continue
			}
		}
		result.Created = append(result.Created, saved)
		existing = append(existing, saved)
	}
	b.service.logger.Info("imported vcards",
		"user_id", b.userID, "folder_id", folderID,
		"created", len(result.Created), "skipped", len(result.Skipped), "failed", len(result.Failed))
	return result, nil
}

func (b *addressBook) SetImage(ctx context.Context, folderID, id, filename, contentType string, r io.Reader) (saved *contact.Contact, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactSetImage, b.userID,
		attribute.String("folder_id", folderID), attribute.String("contact_id", id))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}

	maxSize := b.service.opts.maxImageSize
	data, err := io.ReadAll(io.LimitReader(r, int64(maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	contentType, err = validateImage(data, contentType, maxSize)
	if err != nil {
		return nil, err
	}

	release, err := b.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := b.get(ctx, folderID, id)
	if err != nil {
		return nil, err
	}
	next := stored.Clone()
	next.ImageContentType = contentType
	next.ImageLastModified = store.Now()
	if b.service.images != nil {
		uri, err := b.service.images.Upload(ctx, filename, contentType, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		next.ImageURL = uri
		next.Image1 = nil
	} else {
		next.ImageURL = ""
		next.Image1 = data
	}

	saved, err = b.save(ctx, stored, next, stored.LastModified)
	if err != nil {
		var epe *EventPublishError
		if !errors.As(err, &epe) {
			b.dropImage(ctx, next.ImageURL)
			return nil, err
		}
	}
	if stored.ImageURL != next.ImageURL {
		b.dropImage(ctx, stored.ImageURL)
	}
	return saved, err
}

func (b *addressBook) LoadImage(ctx context.Context, folderID, id string) (rc io.ReadCloser, contentType string, err error) {
	ctx, done := b.service.otel.trackContact(ctx, opContactLoadImage, b.userID,
		attribute.String("folder_id", folderID), attribute.String("contact_id", id))
	defer func() { done(err) }()

	if err := b.checkAccess(); err != nil {
		return nil, "", err
	}
	if err := validateFolderID(folderID); err != nil {
		return nil, "", err
	}
	c, err := b.get(ctx, folderID, id)
	if err != nil {
		return nil, "", err
	}
	switch {
	case len(c.Image1) > 0:
		return io.NopCloser(bytes.NewReader(c.Image1)), c.ImageContentType, nil
	case c.ImageURL != "" && b.service.images != nil:
		rc, err := b.service.images.Load(ctx, c.ImageURL)
		if err != nil {
			return nil, "", storeError("load image", err)
		}
		return rc, c.ImageContentType, nil
	}
	return nil, "", ErrNoImage
}
