package groupware

import (
	"context"
	"errors"
	"net"
	"slices"
	"testing"
	"time"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/retry"
	"github.com/rbaliyan/groupware/secret"
)

func testAccount(address string) *account.Account {
	return &account.Account{
		Name:           "Mail " + address,
		PrimaryAddress: address,
		Mail: account.ServerConfig{
			Protocol: account.ProtocolIMAP,
			Server:   "imap.example.com",
			Secure:   true,
			Login:    address,
			Password: "mail-secret",
		},
		Transport: account.ServerConfig{
			Protocol: account.ProtocolSMTP,
			Server:   "smtp.example.com",
			StartTLS: true,
		},
	}
}

func testSealer(t *testing.T) *secret.Sealer {
	t.Helper()
	s, err := secret.NewSealer("test passphrase", secret.WithCost(1<<4))
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return s
}

func TestMailAccountsCreate(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t, WithCrypter(testSealer(t)))
	accts := svc.MailAccounts("user1")

	first, err := accts.Create(ctx, testAccount("user1@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != account.DefaultAccountID || !first.IsDefault() {
		t.Errorf("expected first account to be the default, got id %d", first.ID)
	}
	if first.UserID != "user1" {
		t.Errorf("expected user1, got %q", first.UserID)
	}
	if first.Mail.Password != "" {
		t.Error("expected returned account to have no password")
	}
	if first.Folders.Names.Drafts != "Drafts" || first.Folders.Names.Sent != "Sent" {
		t.Errorf("expected default folder names, got %+v", first.Folders.Names)
	}

	t.Run("stores sealed passwords", func(t *testing.T) {
		stored, err := svc.accounts.GetAccount(ctx, "user1", first.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !secret.IsSealed(stored.Mail.Password) {
			t.Errorf("expected sealed password, got %q", stored.Mail.Password)
		}
	})

	t.Run("provider folder defaults", func(t *testing.T) {
		acc := testAccount("user1@gmail.com")
		acc.Mail.Server = "imap.gmail.com"
		acc.Folders.Names.Trash = "Bin"
		saved, err := accts.Create(ctx, acc)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if saved.ID != 1 {
			t.Errorf("expected id 1, got %d", saved.ID)
		}
		if saved.Folders.Names.Sent != "[Gmail]/Sent Mail" {
			t.Errorf("expected gmail sent folder, got %q", saved.Folders.Names.Sent)
		}
		if saved.Folders.Names.Trash != "Bin" {
			t.Errorf("expected explicit trash name kept, got %q", saved.Folders.Names.Trash)
		}
	})

	t.Run("duplicate primary address", func(t *testing.T) {
		_, err := accts.Create(ctx, testAccount("USER1@example.com"))
		if !errors.Is(err, ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("invalid account", func(t *testing.T) {
		acc := testAccount("other@example.com")
		acc.Name = ""
		_, err := accts.Create(ctx, acc)
		if !errors.Is(err, ErrInvalidAccount) || !errors.Is(err, account.ErrInvalidAccount) {
			t.Errorf("expected ErrInvalidAccount, got %v", err)
		}
		if IsRetryableError(err) {
			t.Error("validation failures should not be retryable")
		}
	})

	t.Run("nil account", func(t *testing.T) {
		if _, err := accts.Create(ctx, nil); !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("expected ErrInvalidAccount, got %v", err)
		}
	})
}

func TestMailAccountsRead(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t, WithCrypter(testSealer(t)))
	accts := svc.MailAccounts("user1")

	for _, addr := range []string{"a@example.com", "b@example.com"} {
		if _, err := accts.Create(ctx, testAccount(addr)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := accts.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}
	for _, a := range list {
		if a.Mail.Password != "" || a.Transport.Password != "" {
			t.Errorf("account %d: expected redacted passwords", a.ID)
		}
	}

	def, err := accts.Default(ctx)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if def.PrimaryAddress != "a@example.com" {
		t.Errorf("expected a@example.com as default, got %q", def.PrimaryAddress)
	}

	if _, err := accts.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	t.Run("other users see nothing", func(t *testing.T) {
		list, err := svc.MailAccounts("user2").List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected no accounts, got %d", len(list))
		}
	})
}

func TestMailAccountsCredentials(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t, WithCrypter(testSealer(t)))
	accts := svc.MailAccounts("user1")

	acc := testAccount("user1@example.com")
	acc.TransportAuth = account.TransportAuthCustom
	acc.Transport.Login = "relay"
	acc.Transport.Password = "relay-secret"
	saved, err := accts.Create(ctx, acc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	creds, err := accts.Credentials(ctx, saved.ID)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	want := Credentials{
		MailLogin:         "user1@example.com",
		MailPassword:      "mail-secret",
		TransportLogin:    "relay",
		TransportPassword: "relay-secret",
	}
	if *creds != want {
		t.Errorf("expected %+v, got %+v", want, *creds)
	}

	if _, err := accts.Credentials(ctx, account.UnifiedMailAccountID); !errors.Is(err, ErrVirtualAccount) {
		t.Errorf("expected ErrVirtualAccount, got %v", err)
	}

	t.Run("password with sealed prefix", func(t *testing.T) {
		acc := testAccount("prefixed@example.com")
		acc.Mail.Password = secret.Prefix + "mypassword"
		saved, err := accts.Create(ctx, acc)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		stored, err := svc.accounts.GetAccount(ctx, "user1", saved.ID)
		if err != nil {
			t.Fatalf("get stored: %v", err)
		}
		if stored.Mail.Password == acc.Mail.Password {
			t.Error("password stored in clear text")
		}
		creds, err := accts.Credentials(ctx, saved.ID)
		if err != nil {
			t.Fatalf("credentials: %v", err)
		}
		if creds.MailPassword != secret.Prefix+"mypassword" {
			t.Errorf("expected original password, got %q", creds.MailPassword)
		}
	})
}

func TestMailAccountsUpdate(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t, WithCrypter(testSealer(t)))
	accts := svc.MailAccounts("user1")

	saved, err := accts.Create(ctx, testAccount("user1@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("listed attributes only", func(t *testing.T) {
		upd := &account.Account{ID: saved.ID, Name: "Renamed", Personal: "ignored"}
		got, err := accts.Update(ctx, upd, account.AttrName)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %q", got.Name)
		}
		if got.Personal != "" {
			t.Errorf("expected personal untouched, got %q", got.Personal)
		}
		creds, err := accts.Credentials(ctx, saved.ID)
		if err != nil {
			t.Fatalf("credentials: %v", err)
		}
		if creds.MailPassword != "mail-secret" {
			t.Errorf("expected password kept, got %q", creds.MailPassword)
		}
	})

	t.Run("full update keeps empty password", func(t *testing.T) {
		cur, err := accts.Get(ctx, saved.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		cur.Personal = "User One"
		if _, err := accts.Update(ctx, cur); err != nil {
			t.Fatalf("update: %v", err)
		}
		creds, err := accts.Credentials(ctx, saved.ID)
		if err != nil {
			t.Fatalf("credentials: %v", err)
		}
		if creds.MailPassword != "mail-secret" {
			t.Errorf("expected password kept, got %q", creds.MailPassword)
		}
		got, _ := accts.Get(ctx, saved.ID)
		if got.Personal != "User One" {
			t.Errorf("expected personal set, got %q", got.Personal)
		}
	})

	t.Run("password change", func(t *testing.T) {
		upd := &account.Account{ID: saved.ID}
		upd.Mail.Password = "new-secret"
		if _, err := accts.Update(ctx, upd, account.AttrPassword); err != nil {
			t.Fatalf("update: %v", err)
		}
		creds, err := accts.Credentials(ctx, saved.ID)
		if err != nil {
			t.Fatalf("credentials: %v", err)
		}
		if creds.MailPassword != "new-secret" {
			t.Errorf("expected new password, got %q", creds.MailPassword)
		}
	})

	t.Run("invalid result", func(t *testing.T) {
		upd := &account.Account{ID: saved.ID}
		_, err := accts.Update(ctx, upd, account.AttrPrimaryAddress)
		if !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("expected ErrInvalidAccount, got %v", err)
		}
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := accts.Update(ctx, &account.Account{ID: saved.ID}, account.Attribute(1))
		if !errors.Is(err, account.ErrUnknownAttribute) {
			t.Errorf("expected ErrUnknownAttribute, got %v", err)
		}
	})

	t.Run("virtual account", func(t *testing.T) {
		_, err := accts.Update(ctx, &account.Account{ID: account.UnifiedMailAccountID}, account.AttrName)
		if !errors.Is(err, ErrVirtualAccount) {
			t.Errorf("expected ErrVirtualAccount, got %v", err)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := accts.Update(ctx, &account.Account{ID: 9, Name: "x"}, account.AttrName)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestChangedAttributes(t *testing.T) {
	before := testAccount("a@example.com")
	after := before.Clone()
	after.Name = "Other"
	after.Mail.Port = 1993

	got := changedAttributes(before, after, account.Attributes())
	for _, want := range []string{account.AttrName.JSONName(), account.AttrMailPort.JSONName()} {
		if !slices.Contains(got, want) {
			t.Errorf("expected %q in %v", want, got)
		}
	}
	if slices.Contains(got, account.AttrPrimaryAddress.JSONName()) {
		t.Errorf("unchanged attribute reported: %v", got)
	}
}

func TestMailAccountsDelete(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	accts := svc.MailAccounts("user1")

	if _, err := accts.Create(ctx, testAccount("a@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := accts.Create(ctx, testAccount("b@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		id   int
		want error
	}{
		{"default account", account.DefaultAccountID, ErrDefaultAccount},
		{"unified mail", account.UnifiedMailAccountID, ErrVirtualAccount},
		{"negative id", -5, ErrInvalidID},
		{"missing", 42, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := accts.Delete(ctx, tt.id); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := accts.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := accts.Get(ctx, second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// The freed id is handed out again.
	again, err := accts.Create(ctx, testAccount("c@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if again.ID != second.ID {
		t.Errorf("expected id %d reused, got %d", second.ID, again.ID)
	}
}

func TestMailAccountsUnifiedMail(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	accts := svc.MailAccounts("user1")

	u, err := accts.UnifiedMail(ctx)
	if err != nil {
		t.Fatalf("unified mail: %v", err)
	}
	if u.Enabled() {
		t.Error("expected unified mail disabled without accounts")
	}
	if _, err := accts.Get(ctx, account.UnifiedMailAccountID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for _, addr := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		acc := testAccount(addr)
		acc.UnifiedMailEnabled = addr != "b@example.com"
		if _, err := accts.Create(ctx, acc); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	u, err = accts.UnifiedMail(ctx)
	if err != nil {
		t.Fatalf("unified mail: %v", err)
	}
	if got := u.AccountIDs(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("expected accounts [0 2], got %v", got)
	}
	if refs := u.Folders()[account.FolderInbox]; len(refs) != 2 {
		t.Errorf("expected 2 inbox folders, got %d", len(refs))
	}

	virtual, err := accts.Get(ctx, account.UnifiedMailAccountID)
	if err != nil {
		t.Fatalf("get unified mail: %v", err)
	}
	if virtual.ID != account.UnifiedMailAccountID || virtual.Mail.Protocol != account.ProtocolUnifiedMail {
		t.Errorf("unexpected virtual account %+v", virtual)
	}
	if virtual.UserID != "user1" {
		t.Errorf("expected user1, got %q", virtual.UserID)
	}
}

func TestMailAccountsProbe(t *testing.T) {
	ctx := context.Background()
	refused := errors.New("connection refused")
	prober := probe.New(
		probe.WithTimeout(time.Second),
		probe.WithRetry(retry.Policy{Attempts: 1}),
		probe.WithLogger(quietLogger()),
		probe.WithDialer(func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, refused
		}),
	)
	svc := setupTestService(t, WithProber(prober))
	accts := svc.MailAccounts("user1")

	saved, err := accts.Create(ctx, testAccount("user1@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	report, err := accts.Probe(ctx, saved.ID)
	if report == nil {
		t.Fatal("expected a report")
	}
	if report.OK() {
		t.Error("expected failed report")
	}
	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProbeError, got %v", err)
	}
	if pe.AccountID != saved.ID {
		t.Errorf("expected account %d, got %d", saved.ID, pe.AccountID)
	}
	if !errors.Is(err, ErrProbeFailed) {
		t.Errorf("expected ErrProbeFailed, got %v", err)
	}
	if report.Transport == nil {
		t.Error("expected transport result for account with transport")
	}

	t.Run("unsaved account", func(t *testing.T) {
		_, err := accts.Check(ctx, testAccount("new@example.com"))
		if !errors.Is(err, ErrProbeFailed) {
			t.Errorf("expected ErrProbeFailed, got %v", err)
		}
	})

	t.Run("invalid unsaved account", func(t *testing.T) {
		acc := testAccount("new@example.com")
		acc.Mail.Server = ""
		if _, err := accts.Check(ctx, acc); !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("expected ErrInvalidAccount, got %v", err)
		}
	})

	t.Run("virtual account", func(t *testing.T) {
		if _, err := accts.Probe(ctx, account.UnifiedMailAccountID); !errors.Is(err, ErrVirtualAccount) {
			t.Errorf("expected ErrVirtualAccount, got %v", err)
		}
	})
}
