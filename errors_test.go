package groupware

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/store"
)

func TestErrorsWrapStoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		root    error
		wrapped error
	}{
		{"not found", ErrNotFound, store.ErrNotFound},
		{"invalid id", ErrInvalidID, store.ErrInvalidID},
		{"conflict", ErrConflict, store.ErrConflict},
		{"duplicate", ErrDuplicateEntry, store.ErrDuplicateEntry},
		{"not connected", ErrNotConnected, store.ErrNotConnected},
		{"already connected", ErrAlreadyConnected, store.ErrAlreadyConnected},
		{"default account", ErrDefaultAccount, store.ErrDefaultAccount},
		{"invalid folder", ErrInvalidFolderID, store.ErrInvalidFolderID},
		{"invalid query", ErrInvalidQuery, store.ErrInvalidQuery},
		{"invalid user", ErrInvalidUserID, store.ErrInvalidUserID},
		{"invalid account", ErrInvalidAccount, account.ErrInvalidAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.root, tt.wrapped) {
				t.Errorf("expected %v to wrap %v", tt.root, tt.wrapped)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Run("bare sentinel", func(t *testing.T) {
		err := storeError("get contact", store.ErrNotFound)
		if !errors.Is(err, ErrNotFound) || !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected both sentinels to match, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "get contact: ") {
			t.Errorf("expected op prefix, got %q", err.Error())
		}
	})

	t.Run("wrapped sentinel keeps detail", func(t *testing.T) {
		cause := fmt.Errorf("%w: no such column", store.ErrInvalidQuery)
		err := storeError("list contacts", cause)
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("expected ErrInvalidQuery, got %v", err)
		}
		if !strings.Contains(err.Error(), "no such column") {
			t.Errorf("expected detail kept, got %q", err.Error())
		}
	})

	t.Run("other error", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := storeError("create contact", cause)
		if !errors.Is(err, cause) {
			t.Errorf("expected cause kept, got %v", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("unexpected ErrNotFound")
		}
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", ErrNotFound, false},
		{"store not found", store.ErrNotFound, false},
		{"conflict", storeError("update", store.ErrConflict), false},
		{"invalid contact", &ValidationError{Field: "email1", Message: "bad"}, false},
		{"unknown field", contact.ErrUnknownField, false},
		{"image too large", ErrImageTooLarge, false},
		{"virtual account", ErrVirtualAccount, false},
		{"not connected", ErrNotConnected, true},
		{"store not connected", store.ErrNotConnected, true},
		{"unknown", errors.New("timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	cause := contact.ErrTooLong
	err := &ValidationError{Field: "given_name", Message: "too long", Err: cause}

	if !errors.Is(err, ErrInvalidContact) {
		t.Error("expected ErrInvalidContact")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause")
	}
	if !strings.Contains(err.Error(), "given_name") {
		t.Errorf("expected field in message, got %q", err.Error())
	}

	bare := &ValidationError{Field: "contact", Message: "contact is nil"}
	if !errors.Is(bare, ErrInvalidContact) {
		t.Error("expected ErrInvalidContact without cause")
	}
}

func TestEventPublishError(t *testing.T) {
	cause := errors.New("transport down")
	err := fmt.Errorf("create: %w", &EventPublishError{Event: "ContactCreated", ObjectID: "c1", Err: cause})

	epe, ok := IsEventPublishError(err)
	if !ok {
		t.Fatal("expected an event publish error")
	}
	if epe.ObjectID != "c1" || epe.Event != "ContactCreated" {
		t.Errorf("unexpected details %+v", epe)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause")
	}
	if _, ok := IsEventPublishError(cause); ok {
		t.Error("plain error reported as event publish error")
	}
}

func TestProbeError(t *testing.T) {
	mailErr := errors.New("login refused")
	report := &probe.Report{Mail: probe.Result{Err: mailErr}}
	err := &ProbeError{AccountID: 3, Report: report}

	if !errors.Is(err, ErrProbeFailed) {
		t.Error("expected ErrProbeFailed")
	}
	if !errors.Is(err, mailErr) {
		t.Error("expected mail check error")
	}
	if !strings.Contains(err.Error(), "account 3") || !strings.Contains(err.Error(), "login refused") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
