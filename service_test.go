package groupware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/store"
	"github.com/rbaliyan/groupware/store/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestService connects a service over one shared in-memory store.
func setupTestService(t *testing.T, opts ...Option) *service {
	t.Helper()
	st := memory.New()
	base := []Option{
		WithContactStore(st),
		WithAccountStore(st),
		WithLogger(quietLogger()),
	}
	svc, err := NewService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc.(*service)
}

func TestNewService(t *testing.T) {
	t.Run("requires stores", func(t *testing.T) {
		_, err := NewService()
		if !errors.Is(err, ErrStoreRequired) {
			t.Errorf("expected ErrStoreRequired, got %v", err)
		}
	})

	t.Run("requires account store", func(t *testing.T) {
		_, err := NewService(WithContactStore(memory.New()))
		if !errors.Is(err, ErrStoreRequired) {
			t.Errorf("expected ErrStoreRequired, got %v", err)
		}
	})

	t.Run("creates service with shared store", func(t *testing.T) {
		st := memory.New()
		svc, err := NewService(WithContactStore(st), WithAccountStore(st))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc == nil {
			t.Fatal("expected non-nil service")
		}
		if svc.IsConnected() {
			t.Error("new service should not be connected")
		}
	})
}

func TestServiceLifecycle(t *testing.T) {
	t.Run("connect and close", func(t *testing.T) {
		st := memory.New()
		svc, err := NewService(WithContactStore(st), WithAccountStore(st), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx := context.Background()

		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if !svc.IsConnected() {
			t.Error("expected service to be connected")
		}
		if svc.Events() == nil {
			t.Error("expected events after connect")
		}

		// Double connect should fail
		if err := svc.Connect(ctx); !errors.Is(err, ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got %v", err)
		}

		if err := svc.Close(ctx); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		// Double close should be safe
		if err := svc.Close(ctx); err != nil {
			t.Errorf("second close should not error, got %v", err)
		}
	})

	t.Run("operations fail after close", func(t *testing.T) {
		st := memory.New()
		svc, err := NewService(WithContactStore(st), WithAccountStore(st), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx := context.Background()
		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		svc.Close(ctx)

		if _, err := svc.AddressBook("user1").Get(ctx, "contacts", "x"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if _, err := svc.MailAccounts("user1").List(ctx); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if _, _, err := svc.LookupAddress(ctx, "a@example.com"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("separate stores", func(t *testing.T) {
		svc, err := NewService(
			WithContactStore(memory.New()),
			WithAccountStore(memory.New()),
			WithLogger(quietLogger()),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx := context.Background()
		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if err := svc.Close(ctx); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	})
}

func TestClientsRejectInvalidUserID(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	for _, id := range []string{"", "user:1", "a b", "x*"} {
		t.Run(id, func(t *testing.T) {
			book := svc.AddressBook(id)
			if book.UserID() != id {
				t.Errorf("expected user %q, got %q", id, book.UserID())
			}
			if _, err := book.List(ctx, "contacts", ListOptions{}); !errors.Is(err, ErrInvalidUserID) {
				t.Errorf("expected ErrInvalidUserID, got %v", err)
			}
			if _, err := svc.MailAccounts(id).List(ctx); !errors.Is(err, ErrInvalidUserID) {
				t.Errorf("expected ErrInvalidUserID, got %v", err)
			}
		})
	}
}

func TestLookupAddress(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	if _, err := svc.MailAccounts("alice").Create(ctx, testAccount("alice@example.com")); err != nil {
		t.Fatalf("create account: %v", err)
	}
	bob := svc.MailAccounts("bob")
	if _, err := bob.Create(ctx, testAccount("bob@example.com")); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := bob.Create(ctx, testAccount("bob@work.example.com")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	tests := []struct {
		address string
		user    string
		id      int
	}{
		{"alice@example.com", "alice", account.DefaultAccountID},
		{"BOB@Example.com", "bob", 0},
		{"bob@work.example.com", "bob", 1},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			user, id, err := svc.LookupAddress(ctx, tt.address)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if user != tt.user || id != tt.id {
				t.Errorf("expected %s/%d, got %s/%d", tt.user, tt.id, user, id)
			}
		})
	}

	t.Run("unknown address", func(t *testing.T) {
		_, _, err := svc.LookupAddress(ctx, "nobody@example.com")
		if !errors.Is(err, ErrNotFound) || !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty address", func(t *testing.T) {
		if _, _, err := svc.LookupAddress(ctx, "  "); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
