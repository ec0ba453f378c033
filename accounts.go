package groupware

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/probe"
)

// MailAccounts provides a user's mail account operations.
//
// Passwords are encrypted with the configured crypter before they are
// stored. Accounts returned by List, Get and Default have their passwords
// cleared; use Credentials to read them.
type MailAccounts interface {
	// UserID returns the user this client acts for.
	UserID() string

	// List returns the user's accounts ordered by ID.
	List(ctx context.Context) ([]*account.Account, error)
	// Get retrieves an account. account.UnifiedMailAccountID returns the
	// virtual Unified Mail account when at least one account takes part.
	Get(ctx context.Context, id int) (*account.Account, error)
	// Default retrieves the user's default account.
	Default(ctx context.Context) (*account.Account, error)

	// Create validates and stores a new account. The first account of a
	// user becomes the default account. Empty standard folder names are
	// filled with the defaults of the mail server's provider.
	Create(ctx context.Context, acc *account.Account) (*account.Account, error)
	// Update writes the listed attributes of acc to the stored account
	// acc.ID, or every attribute when none are listed. In a full update an
	// empty password keeps the stored one.
	Update(ctx context.Context, acc *account.Account, attrs ...account.Attribute) (*account.Account, error)
	// Delete removes an account. The default account cannot be deleted.
	Delete(ctx context.Context, id int) error

	// Credentials returns the decrypted logins and passwords of an account.
	Credentials(ctx context.Context, id int) (*Credentials, error)
	// Probe connects to the servers of a stored account and authenticates.
	// A failed check returns the report together with a *ProbeError.
	Probe(ctx context.Context, id int) (*probe.Report, error)
	// Check probes an account description that is not stored yet. Its
	// passwords are taken as plain text.
	Check(ctx context.Context, acc *account.Account) (*probe.Report, error)
	// UnifiedMail returns a snapshot of the user's Unified Mail aggregation.
	UnifiedMail(ctx context.Context) (*account.UnifiedMail, error)
}

// Credentials holds the decrypted logins of an account.
type Credentials struct {
	MailLogin         string
	MailPassword      string
	TransportLogin    string
	TransportPassword string
}

type mailAccounts struct {
	userID      string
	service     *service
	validUserID bool
}

// UserID returns the user ID of this client.
func (m *mailAccounts) UserID() string {
	return m.userID
}

// checkAccess verifies the client is ready for operations.
func (m *mailAccounts) checkAccess() error {
	if atomic.LoadInt32(&m.service.state) != stateConnected {
		return ErrNotConnected
	}
	if !m.validUserID {
		return ErrInvalidUserID
	}
	return nil
}

// invalidAccount ties an account validation failure to ErrInvalidAccount.
func invalidAccount(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
}

// redact returns acc without passwords.
func redact(acc *account.Account) *account.Account {
	out := acc.Clone()
	out.Mail.Password = ""
	out.Transport.Password = ""
	return out
}

// seal returns acc with its passwords encrypted. Passwords reaching seal
// are always plain text, whatever they look like.
func (m *mailAccounts) seal(acc *account.Account) (*account.Account, error) {
	out := acc.Clone()
	for _, pw := range []*string{&out.Mail.Password, &out.Transport.Password} {
		if *pw == "" {
			continue
		}
		sealed, err := m.service.opts.crypter.Encrypt(*pw)
		if err != nil {
			return nil, fmt.Errorf("encrypt password: %w", err)
		}
		*pw = sealed
	}
	return out, nil
}

// open returns acc with its passwords decrypted.
func (m *mailAccounts) open(acc *account.Account) (*account.Account, error) {
	out := acc.Clone()
	for _, pw := range []*string{&out.Mail.Password, &out.Transport.Password} {
		if *pw == "" {
			continue
		}
		plain, err := m.service.opts.crypter.Decrypt(*pw)
		if err != nil {
			return nil, fmt.Errorf("decrypt password: %w", err)
		}
		*pw = plain
	}
	return out, nil
}

func (m *mailAccounts) List(ctx context.Context) (accs []*account.Account, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountList, m.userID)
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	stored, err := m.service.accounts.ListAccounts(ctx, m.userID)
	if err != nil {
		return nil, storeError("list accounts", err)
	}
	accs = make([]*account.Account, len(stored))
	for i, a := range stored {
		accs[i] = redact(a)
	}
	return accs, nil
}

func (m *mailAccounts) Get(ctx context.Context, id int) (acc *account.Account, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountGet, m.userID, attribute.Int("account_id", id))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if id == account.UnifiedMailAccountID {
		u, err := m.unified(ctx)
		if err != nil {
			return nil, err
		}
		if !u.Enabled() {
			return nil, ErrNotFound
		}
		acc = u.Account()
		acc.UserID = m.userID
		return acc, nil
	}
	stored, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return redact(stored), nil
}

func (m *mailAccounts) get(ctx context.Context, id int) (*account.Account, error) {
	if id < 0 {
		return nil, ErrInvalidID
	}
	acc, err := m.service.accounts.GetAccount(ctx, m.userID, id)
	if err != nil {
		return nil, storeError("get account", err)
	}
	return acc, nil
}

func (m *mailAccounts) Default(ctx context.Context) (acc *account.Account, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountGet, m.userID, attribute.Bool("default", true))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	stored, err := m.service.accounts.GetDefaultAccount(ctx, m.userID)
	if err != nil {
		return nil, storeError("get default account", err)
	}
	return redact(stored), nil
}

func (m *mailAccounts) Create(ctx context.Context, acc *account.Account) (saved *account.Account, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountCreate, m.userID)
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, invalidAccount(&account.ValidationError{Field: "account", Reason: "account is nil"})
	}

	draft := acc.Clone()
	draft.ID = account.DefaultAccountID
	draft.UserID = m.userID
	draft.Folders = draft.Folders.Resolve(account.DefaultFolderNames(account.DetectProvider(draft.Mail.Server)))

	if err := m.service.plugins.beforeSaveAccount(ctx, m.userID, draft); err != nil {
		return nil, err
	}
	// Hooks may not reassign the account.
	draft.ID, draft.UserID = account.DefaultAccountID, m.userID
	if err := draft.Validate(); err != nil {
		return nil, invalidAccount(err)
	}
	sealed, err := m.seal(draft)
	if err != nil {
		return nil, err
	}

	release, err := m.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	id, err := m.service.accounts.InsertAccount(ctx, sealed)
	if err != nil {
		return nil, storeError("insert account", err)
	}
	stored, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	saved = redact(stored)
	m.service.logger.Info("mail account created",
		"user_id", m.userID, "account_id", id, "default", saved.IsDefault())

	if err := publish(ctx, m.service, m.service.events.AccountCreated, "AccountCreated", accountObjectID(m.userID, id), AccountCreatedEvent{
		UserID:         m.userID,
		AccountID:      id,
		PrimaryAddress: saved.PrimaryAddress,
		CreatedAt:      saved.LastModified,
	}); err != nil {
		return saved, err
	}
	return saved, nil
}

func (m *mailAccounts) Update(ctx context.Context, acc *account.Account, attrs ...account.Attribute) (saved *account.Account, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountUpdate, m.userID)
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, invalidAccount(&account.ValidationError{Field: "account", Reason: "account is nil"})
	}
	if acc.ID == account.UnifiedMailAccountID {
		return nil, ErrVirtualAccount
	}
	for _, a := range attrs {
		if !a.Valid() {
			return nil, invalidAccount(&account.ValidationError{Field: a.String(), Reason: "unknown attribute", Err: account.ErrUnknownAttribute})
		}
	}

	release, err := m.service.beginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := m.get(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	current, err := m.open(stored)
	if err != nil {
		return nil, err
	}

	update := acc.Clone()
	if len(attrs) == 0 {
		if update.Mail.Password == "" {
			update.Mail.Password = current.Mail.Password
		}
		if update.Transport.Password == "" {
			update.Transport.Password = current.Transport.Password
		}
	}
	next := current.Clone()
	written := attrs
	if len(written) == 0 {
		written = account.Attributes()
		next.Properties = update.Properties
	}
	if err := account.Apply(next, update, withoutID(written)); err != nil {
		return nil, invalidAccount(err)
	}
	next.ID, next.UserID = stored.ID, m.userID

	if err := m.service.plugins.beforeSaveAccount(ctx, m.userID, next); err != nil {
		return nil, err
	}
	next.ID, next.UserID = stored.ID, m.userID
	if err := next.Validate(); err != nil {
		return nil, invalidAccount(err)
	}
	sealed, err := m.seal(next)
	if err != nil {
		return nil, err
	}
	if err := m.service.accounts.UpdateAccount(ctx, m.userID, sealed, attrs); err != nil {
		return nil, storeError("update account", err)
	}
	if err := m.service.accounts.InvalidateAccount(ctx, m.userID, stored.ID); err != nil {
		m.service.logger.Warn("failed to invalidate cached account",
			"user_id", m.userID, "account_id", stored.ID, "error", err)
	}

	fresh, err := m.get(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	saved = redact(fresh)

	changed := changedAttributes(current, next, written)
	if err := publish(ctx, m.service, m.service.events.AccountUpdated, "AccountUpdated", accountObjectID(m.userID, saved.ID), AccountUpdatedEvent{
		UserID:     m.userID,
		AccountID:  saved.ID,
		Attributes: changed,
		UpdatedAt:  saved.LastModified,
	}); err != nil {
		return saved, err
	}
	return saved, nil
}

func withoutID(attrs []account.Attribute) []account.Attribute {
	out := make([]account.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a != account.AttrID {
			out = append(out, a)
		}
	}
	return out
}

// changedAttributes returns the JSON names of the attributes among attrs
// whose value differs between before and after.
func changedAttributes(before, after *account.Account, attrs []account.Attribute) []string {
	var names []string
	for _, a := range attrs {
		if a == account.AttrID {
			continue
		}
		x, err := a.Switch(account.AttributeGetter{}, before, nil)
		if err != nil {
			continue
		}
		y, err := a.Switch(account.AttributeGetter{}, after, nil)
		if err != nil {
			continue
		}
		if !reflect.DeepEqual(x, y) {
			names = append(names, a.JSONName())
		}
	}
	return names
}

func (m *mailAccounts) Delete(ctx context.Context, id int) (err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountDelete, m.userID, attribute.Int("account_id", id))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return err
	}
	switch {
	case id == account.UnifiedMailAccountID:
		return ErrVirtualAccount
	case id == account.DefaultAccountID:
		return ErrDefaultAccount
	case id < 0:
		return ErrInvalidID
	}

	release, err := m.service.beginWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := m.service.accounts.DeleteAccount(ctx, m.userID, id); err != nil {
		return storeError("delete account", err)
	}
	if err := m.service.accounts.InvalidateAccount(ctx, m.userID, id); err != nil {
		m.service.logger.Warn("failed to invalidate cached account",
			"user_id", m.userID, "account_id", id, "error", err)
	}
	m.service.logger.Info("mail account deleted", "user_id", m.userID, "account_id", id)

	return publish(ctx, m.service, m.service.events.AccountDeleted, "AccountDeleted", accountObjectID(m.userID, id), AccountDeletedEvent{
		UserID:    m.userID,
		AccountID: id,
		DeletedAt: time.Now().UTC(),
	})
}

func (m *mailAccounts) Credentials(ctx context.Context, id int) (creds *Credentials, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountCredentials, m.userID, attribute.Int("account_id", id))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if id == account.UnifiedMailAccountID {
		return nil, ErrVirtualAccount
	}
	plain, err := m.opened(ctx, id)
	if err != nil {
		return nil, err
	}
	login, password := plain.TransportCredentials()
	return &Credentials{
		MailLogin:         plain.Mail.Login,
		MailPassword:      plain.Mail.Password,
		TransportLogin:    login,
		TransportPassword: password,
	}, nil
}

// opened loads an account with decrypted passwords.
func (m *mailAccounts) opened(ctx context.Context, id int) (*account.Account, error) {
	stored, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(stored)
}

func (m *mailAccounts) Probe(ctx context.Context, id int) (report *probe.Report, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountProbe, m.userID, attribute.Int("account_id", id))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if id == account.UnifiedMailAccountID {
		return nil, ErrVirtualAccount
	}
	plain, err := m.opened(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.probe(ctx, plain)
}

func (m *mailAccounts) Check(ctx context.Context, acc *account.Account) (report *probe.Report, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountProbe, m.userID, attribute.Bool("unsaved", true))
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, invalidAccount(&account.ValidationError{Field: "account", Reason: "account is nil"})
	}
	draft := acc.Clone()
	draft.UserID = m.userID
	if err := draft.Validate(); err != nil {
		return nil, invalidAccount(err)
	}
	return m.probe(ctx, draft)
}

// probe checks the servers of an account whose passwords are plain text.
func (m *mailAccounts) probe(ctx context.Context, plain *account.Account) (*probe.Report, error) {
	_, transportPassword := plain.TransportCredentials()
	report := m.service.prober.Account(ctx, plain, plain.Mail.Password, transportPassword)
	if !report.OK() {
		return report, &ProbeError{AccountID: plain.ID, Report: report}
	}
	return report, nil
}

func (m *mailAccounts) UnifiedMail(ctx context.Context) (u *account.UnifiedMail, err error) {
	ctx, done := m.service.otel.trackAccount(ctx, opAccountUnified, m.userID)
	defer func() { done(err) }()

	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	return m.unified(ctx)
}

func (m *mailAccounts) unified(ctx context.Context) (*account.UnifiedMail, error) {
	stored, err := m.service.accounts.ListAccounts(ctx, m.userID)
	if err != nil {
		return nil, storeError("list accounts", err)
	}
	accs := make([]*account.Account, len(stored))
	for i, a := range stored {
		accs[i] = redact(a)
	}
	return account.NewUnifiedMail(accs), nil
}
