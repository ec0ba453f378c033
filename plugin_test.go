package groupware

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store/memory"
)

var errRejected = errors.New("rejected by policy")

// policyPlugin normalises nicknames, rejects contacts named Mallory and
// accounts outside example.com.
type policyPlugin struct {
	mu      sync.Mutex
	inits   int
	closes  int
	saved   []string
	initErr error
}

func (p *policyPlugin) Name() string { return "policy" }

func (p *policyPlugin) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return p.initErr
}

func (p *policyPlugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *policyPlugin) BeforeSaveContact(ctx context.Context, userID string, c *contact.Contact) error {
	if strings.EqualFold(c.GivenName, "mallory") {
		return errRejected
	}
	c.Nickname = strings.ToLower(c.Nickname)
	return nil
}

func (p *policyPlugin) AfterSaveContact(ctx context.Context, userID string, c *contact.Contact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, c.ID)
	return nil
}

func (p *policyPlugin) BeforeSaveAccount(ctx context.Context, userID string, acc *account.Account) error {
	if !strings.HasSuffix(acc.PrimaryAddress, "@example.com") {
		return errRejected
	}
	acc.Name = strings.TrimSpace(acc.Name)
	return nil
}

func TestPluginLifecycle(t *testing.T) {
	ctx := context.Background()
	p := &policyPlugin{}
	st := memory.New()
	svc, err := NewService(WithContactStore(st), WithAccountStore(st), WithLogger(quietLogger()), WithPlugin(p))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if p.inits != 1 {
		t.Errorf("expected Init once, got %d", p.inits)
	}
	if err := svc.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.closes != 1 {
		t.Errorf("expected Close once, got %d", p.closes)
	}
}

func TestPluginInitFailure(t *testing.T) {
	ctx := context.Background()
	first := &policyPlugin{}
	failing := &policyPlugin{initErr: errors.New("boom")}
	st := memory.New()
	svc, err := NewService(WithContactStore(st), WithAccountStore(st), WithLogger(quietLogger()),
		WithPlugins(first, failing))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Connect(ctx)
	var he *HookError
	if !errors.As(err, &he) || he.Op != "init" {
		t.Fatalf("expected init HookError, got %v", err)
	}
	if svc.IsConnected() {
		t.Error("service should not be connected after plugin failure")
	}
	if first.closes != 1 {
		t.Errorf("expected initialized plugin to be closed, got %d", first.closes)
	}
}

func TestContactHooks(t *testing.T) {
	ctx := context.Background()
	p := &policyPlugin{}
	svc := setupTestService(t, WithPlugin(p))
	book := svc.AddressBook("user1")

	saved := mustCreate(t, book, &contact.Contact{GivenName: "Alice", Nickname: "ALI"})
	if saved.Nickname != "ali" {
		t.Errorf("expected hook to normalise nickname, got %q", saved.Nickname)
	}

	_, err := book.Create(ctx, &contact.Contact{FolderID: testFolder, GivenName: "Mallory"})
	var he *HookError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HookError, got %v", err)
	}
	if he.Plugin != "policy" || he.Op != "BeforeSaveContact" || !errors.Is(err, errRejected) {
		t.Errorf("unexpected hook error %v", he)
	}

	upd := &contact.Contact{ID: saved.ID, FolderID: testFolder, GivenName: "mallory"}
	if _, err := book.Update(ctx, upd, saved.LastModified, contact.FieldGivenName); !errors.Is(err, errRejected) {
		t.Errorf("expected update rejected, got %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) != 1 || p.saved[0] != saved.ID {
		t.Errorf("expected one after-save call for %s, got %v", saved.ID, p.saved)
	}
}

func TestAccountHooks(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t, WithPlugin(&policyPlugin{}))
	accounts := svc.MailAccounts("user1")

	acc := testAccount("alice@example.com")
	acc.Name = "  Alice  "
	saved, err := accounts.Create(ctx, acc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.Name != "Alice" {
		t.Errorf("expected hook to trim name, got %q", saved.Name)
	}

	if _, err := accounts.Create(ctx, testAccount("alice@elsewhere.org")); !errors.Is(err, errRejected) {
		t.Errorf("expected account rejected, got %v", err)
	}
}
