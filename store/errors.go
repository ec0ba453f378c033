package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNotFound is returned when a contact or account cannot be found.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidID is returned when an invalid ID is provided.
	ErrInvalidID = errors.New("store: invalid id")

	// ErrConflict is returned when an update is based on a stale copy: the
	// stored object was modified after the client's last-modified timestamp.
	ErrConflict = errors.New("store: object changed in the meantime")

	// ErrDuplicateEntry is returned when a unique constraint is violated,
	// for example a second account with the same primary address.
	ErrDuplicateEntry = errors.New("store: duplicate entry")

	// ErrNotConnected is returned when operations are attempted before Connect().
	ErrNotConnected = errors.New("store: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("store: already connected")

	// ErrDefaultAccount is returned when deleting the default account.
	ErrDefaultAccount = errors.New("store: default account cannot be deleted")

	// ErrInvalidFolderID is returned when an invalid folder ID is provided.
	ErrInvalidFolderID = errors.New("store: invalid folder id")

	// ErrInvalidQuery is returned when list options or a search query name
	// unknown or unusable fields.
	ErrInvalidQuery = errors.New("store: invalid query")

	// ErrInvalidUserID is returned when an empty user ID is provided.
	ErrInvalidUserID = errors.New("store: invalid user id")
)

// Error checking helpers.

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidID(err error) bool {
	return errors.Is(err, ErrInvalidID)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// ErrInvalidURI is returned when an image URI does not belong to the store
// it is passed to.
var ErrInvalidURI = errors.New("store: invalid uri")
