package groupware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/store"
)

// Sentinel errors for the groupware package.
// Use errors.Is() to check for these errors.
//
// These errors wrap corresponding store-level errors where applicable,
// so errors.Is(err, groupware.ErrNotFound) and errors.Is(err,
// store.ErrNotFound) both match an error returned by the service.
var (
	// ErrNotFound is returned when a contact or account cannot be found.
	// Wraps store.ErrNotFound for consistent error checking.
	ErrNotFound = fmt.Errorf("groupware: %w", store.ErrNotFound)

	// ErrUnauthorized is returned when a user touches a contact created by
	// another user.
	ErrUnauthorized = errors.New("groupware: unauthorized")

	// ErrInvalidID is returned when an invalid ID is provided.
	// Wraps store.ErrInvalidID for consistent error checking.
	ErrInvalidID = fmt.Errorf("groupware: %w", store.ErrInvalidID)

	// ErrConflict is returned when an update is based on a stale copy.
	// Wraps store.ErrConflict for consistent error checking.
	ErrConflict = fmt.Errorf("groupware: %w", store.ErrConflict)

	// ErrDuplicateEntry is returned when a unique constraint is violated.
	// Wraps store.ErrDuplicateEntry for consistent error checking.
	ErrDuplicateEntry = fmt.Errorf("groupware: %w", store.ErrDuplicateEntry)

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps store.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("groupware: %w", store.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps store.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("groupware: %w", store.ErrAlreadyConnected)

	// ErrDefaultAccount is returned when deleting the default account.
	// Wraps store.ErrDefaultAccount for consistent error checking.
	ErrDefaultAccount = fmt.Errorf("groupware: %w", store.ErrDefaultAccount)

	// ErrInvalidFolderID is returned when a folder ID is invalid.
	// Wraps store.ErrInvalidFolderID for consistent error checking.
	ErrInvalidFolderID = fmt.Errorf("groupware: %w", store.ErrInvalidFolderID)

	// ErrInvalidQuery is returned for unusable list options or queries.
	// Wraps store.ErrInvalidQuery for consistent error checking.
	ErrInvalidQuery = fmt.Errorf("groupware: %w", store.ErrInvalidQuery)

	// ErrInvalidUserID is returned when a user ID contains invalid characters.
	// Wraps store.ErrInvalidUserID for consistent error checking.
	ErrInvalidUserID = fmt.Errorf("groupware: %w", store.ErrInvalidUserID)

	// ErrStoreRequired is returned when no contact or account store is configured.
	ErrStoreRequired = errors.New("groupware: store is required")

	// ErrInvalidContact is returned for contact validation failures.
	ErrInvalidContact = errors.New("groupware: invalid contact")

	// ErrInvalidAccount is returned for account validation failures.
	// Wraps account.ErrInvalidAccount for consistent error checking.
	ErrInvalidAccount = fmt.Errorf("groupware: %w", account.ErrInvalidAccount)

	// ErrSameContact is returned when a contact is merged into itself.
	ErrSameContact = errors.New("groupware: cannot merge a contact into itself")

	// ErrNoImage is returned when a contact has no image.
	ErrNoImage = errors.New("groupware: contact has no image")

	// ErrImageTooLarge is returned when an image exceeds the size limit.
	ErrImageTooLarge = errors.New("groupware: image too large")

	// ErrInvalidImage is returned when image data or its content type is unusable.
	ErrInvalidImage = errors.New("groupware: invalid image")

	// ErrVirtualAccount is returned for writes to the Unified Mail account.
	ErrVirtualAccount = errors.New("groupware: unified mail account is virtual")

	// ErrProbeFailed is returned when an account's servers cannot be reached
	// or refuse its credentials.
	ErrProbeFailed = errors.New("groupware: account probe failed")
)

// storeErrors maps store sentinels to their groupware counterparts.
var storeErrors = []struct {
	store error
	root  error
}{
	{store.ErrNotFound, ErrNotFound},
	{store.ErrInvalidID, ErrInvalidID},
	{store.ErrConflict, ErrConflict},
	{store.ErrDuplicateEntry, ErrDuplicateEntry},
	{store.ErrNotConnected, ErrNotConnected},
	{store.ErrDefaultAccount, ErrDefaultAccount},
	{store.ErrInvalidFolderID, ErrInvalidFolderID},
	{store.ErrInvalidQuery, ErrInvalidQuery},
	{store.ErrInvalidUserID, ErrInvalidUserID},
}

// storeError annotates a store error with op. Store sentinels are replaced
// by the groupware sentinel wrapping them, so callers can match either.
func storeError(op string, err error) error {
	for _, m := range storeErrors {
		if errors.Is(err, m.store) {
			if err == m.store {
				return fmt.Errorf("%s: %w", op, m.root)
			}
			return fmt.Errorf("%s: %w: %w", op, m.root, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError determines if an error is retryable.
// Returns true for temporary/transient errors, false for permanent errors.
// Handles both groupware-level and store-level errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pe *probe.Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}

	// Permanent errors that should not be retried. A conflict needs a
	// reload first, so a blind retry cannot succeed either.
	permanentErrors := []error{
		ErrNotFound,
		ErrUnauthorized,
		ErrInvalidID,
		ErrConflict,
		ErrDuplicateEntry,
		ErrDefaultAccount,
		ErrInvalidFolderID,
		ErrInvalidQuery,
		ErrInvalidUserID,
		ErrInvalidContact,
		ErrInvalidAccount,
		ErrSameContact,
		ErrNoImage,
		ErrImageTooLarge,
		ErrInvalidImage,
		ErrVirtualAccount,
		ErrStoreRequired,
		contact.ErrUnknownField,
		contact.ErrWrongType,
		contact.ErrTooLong,
		contact.ErrInvalidValue,
		store.ErrInvalidURI,
	}
	for _, permErr := range permanentErrors {
		if errors.Is(err, permErr) {
			return false
		}
	}

	// Retryable errors
	retryableErrors := []error{
		ErrNotConnected, // Connection can be re-established
		store.ErrNotConnected,
	}
	for _, retryErr := range retryableErrors {
		if errors.Is(err, retryErr) {
			return true
		}
	}

	// For unknown errors, default to retryable
	// as they might be transient network/timeout issues
	return true
}

// ValidationError provides details about a contact validation failure.
type ValidationError struct {
	Field   string // The field that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying cause, if any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("groupware: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidContact, e.Err}
	}
	return []error{ErrInvalidContact}
}

// EventPublishError is returned when event publishing fails but the operation succeeded.
// The contact or account was written, but the event notification failed.
// Check the ObjectID field to identify which object this applies to.
type EventPublishError struct {
	Event    string // The event name (e.g., "ContactCreated")
	ObjectID string // The contact or account ID the event was for
	Err      error  // The underlying publish error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("groupware: event %s publish failed for %s: %v", e.Event, e.ObjectID, e.Err)
}

func (e *EventPublishError) Unwrap() error {
	return e.Err
}

// IsEventPublishError checks if the error is an event publish error and returns details.
// This is useful when eventErrorsFatal=true but you still want to know the write happened.
func IsEventPublishError(err error) (*EventPublishError, bool) {
	var epe *EventPublishError
	if errors.As(err, &epe) {
		return epe, true
	}
	return nil, false
}

// ProbeError reports an account whose servers failed the connection check.
type ProbeError struct {
	AccountID int
	Report    *probe.Report
}

func (e *ProbeError) Error() string {
	var parts []string
	if e.Report != nil {
		if e.Report.Mail.Err != nil {
			parts = append(parts, "mail: "+e.Report.Mail.Err.Error())
		}
		if e.Report.Transport != nil && e.Report.Transport.Err != nil {
			parts = append(parts, "transport: "+e.Report.Transport.Err.Error())
		}
	}
	return fmt.Sprintf("groupware: probe of account %d failed (%s)", e.AccountID, strings.Join(parts, "; "))
}

// Unwrap returns ErrProbeFailed and the failed checks.
func (e *ProbeError) Unwrap() []error {
	errs := []error{ErrProbeFailed}
	if e.Report != nil {
		if err := e.Report.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
