package groupware

import (
	"context"
	"errors"

	"github.com/rbaliyan/groupware/contact"
)

// ContactIterator provides streaming access to the contacts matching a
// query. Contacts are fetched in batches as Next advances.
//
// # Iterator vs List
//
// Use Stream when walking a whole address book, e.g. for an export or a
// sync, without holding every contact in memory. Use List or Search for
// paged views with a total count.
//
//	it, _ := book.Stream(ctx, ContactQuery{Folders: []string{"contacts"}}, StreamOptions{BatchSize: 200})
//	for {
//	    ok, err := it.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    c, _ := it.Contact()
//	    // process c
//	}
//
// The iterator holds no resources; stop calling Next when done. It is not
// safe for concurrent use. Batches are read by offset, so contacts created
// or deleted during the walk may be skipped or seen twice.
type ContactIterator interface {
	// Next advances to the next contact.
	// Returns (true, nil) if there is a contact available.
	// Returns (false, nil) if iteration is done.
	// Returns (false, error) if the service disconnected or a fetch failed.
	Next(ctx context.Context) (bool, error)

	// Contact returns the current contact.
	// Returns ErrIteratorOutOfBounds if called before Next or after the end.
	Contact() (*contact.Contact, error)
}

// ErrIteratorOutOfBounds is returned when Contact() is called without a successful Next().
var ErrIteratorOutOfBounds = errors.New("groupware: iterator out of bounds - call Next() first")

// DefaultStreamBatchSize is the batch size used when StreamOptions leaves it unset.
const DefaultStreamBatchSize = 100

// StreamOptions configures streaming behavior.
type StreamOptions struct {
	// BatchSize is the number of contacts fetched per batch.
	// Larger batches reduce round-trips but use more memory.
	// Default: 100, capped at the service's max query limit.
	BatchSize int
}

// contactIterator pages through SearchContacts.
type contactIterator struct {
	book     *addressBook
	query    ContactQuery
	batch    []*contact.Contact
	batchIdx int
	hasMore  bool
	fetched  bool
	done     bool
}

func (it *contactIterator) Next(ctx context.Context) (bool, error) {
	if it.done {
		return false, nil
	}

	// Verify service is still connected on each iteration
	if err := it.book.checkAccess(); err != nil {
		it.done = true
		return false, err
	}

	if it.batchIdx >= len(it.batch) {
		if it.fetched && !it.hasMore {
			it.done = true
			return false, nil
		}
		list, err := it.book.service.contacts.SearchContacts(ctx, it.query)
		if err != nil {
			it.done = true
			return false, storeError("stream contacts", err)
		}
		it.batch = list.Contacts
		it.batchIdx = 0
		it.hasMore = list.HasMore
		it.fetched = true
		it.query.Options.Offset += len(list.Contacts)

		if len(it.batch) == 0 {
			it.done = true
			return false, nil
		}
	}

	it.batchIdx++
	return true, nil
}

func (it *contactIterator) Contact() (*contact.Contact, error) {
	if it.batchIdx <= 0 || it.batchIdx > len(it.batch) {
		return nil, ErrIteratorOutOfBounds
	}
	return it.batch[it.batchIdx-1], nil
}

// Stream returns an iterator over the contacts matching q. q.Options.Limit
// and q.Options.Offset are replaced by the batching.
func (b *addressBook) Stream(ctx context.Context, q ContactQuery, opts StreamOptions) (ContactIterator, error) {
	if err := b.checkAccess(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, storeError("stream contacts", err)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultStreamBatchSize
	}
	q.Options.Limit = b.service.opts.pageLimit(batchSize)
	q.Options.Offset = 0
	q.Options.CreatedBy = b.userID
	return &contactIterator{book: b, query: q}, nil
}
