package account

import (
	"maps"
	"net/mail"
	"strings"
	"time"
)

// DefaultAccountID is the id of a user's primary mail account. The first
// account stored for a user always receives it.
const DefaultAccountID = 0

// Property keys understood on Account.Properties.
const (
	// PropertyFolderPrefix is the personal namespace of the mail server,
	// e.g. "INBOX".
	PropertyFolderPrefix = "namespace"
	// PropertyFolderSeparator is the hierarchy separator, e.g. "/".
	PropertyFolderSeparator = "separator"
)

// Account describes a user's external mail account: where mail is read
// from, where it is sent through and which folders play standard roles.
type Account struct {
	ID             int    `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	PrimaryAddress string `json:"primary_address"`
	Personal       string `json:"personal,omitempty"`
	ReplyTo        string `json:"reply_to,omitempty"`

	Mail          ServerConfig  `json:"mail"`
	Transport     ServerConfig  `json:"transport"`
	TransportAuth TransportAuth `json:"transport_auth,omitempty"`

	SpamHandler        string         `json:"spam_handler,omitempty"`
	Folders            DefaultFolders `json:"folders"`
	UnifiedMailEnabled bool           `json:"unified_mail_enabled"`

	Properties   map[string]string `json:"properties,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// IsDefault reports whether a is the primary account.
func (a *Account) IsDefault() bool { return a.ID == DefaultAccountID }

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Mail = a.Mail.Clone()
	cp.Transport = a.Transport.Clone()
	cp.Properties = maps.Clone(a.Properties)
	return &cp
}

// EffectiveTransportAuth returns the transport auth mode, inferring it
// when unset: custom if the transport server has its own login, mail
// otherwise.
func (a *Account) EffectiveTransportAuth() TransportAuth {
	if a.TransportAuth != "" {
		return a.TransportAuth
	}
	if a.Transport.Login != "" {
		return TransportAuthCustom
	}
	return TransportAuthMail
}

// TransportCredentials returns the login and password to authenticate
// against the transport server. Passwords are returned as stored.
func (a *Account) TransportCredentials() (login, password string) {
	switch a.EffectiveTransportAuth() {
	case TransportAuthCustom:
		return a.Transport.Login, a.Transport.Password
	case TransportAuthNone:
		return "", ""
	default:
		return a.Mail.Login, a.Mail.Password
	}
}

// HasTransport reports whether a transport server is configured.
func (a *Account) HasTransport() bool { return a.Transport.Server != "" }

// FolderFullName returns the full name of a standard folder using the
// namespace and separator recorded in Properties.
func (a *Account) FolderFullName(k FolderKind) string {
	sep := '/'
	if s := a.Properties[PropertyFolderSeparator]; s != "" {
		sep = []rune(s)[0]
	}
	return a.Folders.FullNameFor(k, a.Properties[PropertyFolderPrefix], sep)
}

// Validate checks the account description and returns a *ValidationError
// for the first problem found.
func (a *Account) Validate() error {
	if a.ID < 0 {
		return invalid("id", "must not be negative")
	}
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name", "name is required")
	}
	if a.PrimaryAddress == "" {
		return invalid("primary_address", "primary address is required")
	}
	if addr, err := mail.ParseAddress(a.PrimaryAddress); err != nil || addr.Name != "" {
		return &ValidationError{Field: "primary_address", Reason: "not a bare e-mail address", Err: err}
	}
	if a.ReplyTo != "" {
		if _, err := mail.ParseAddressList(a.ReplyTo); err != nil {
			return &ValidationError{Field: "reply_to", Reason: "not an address list", Err: err}
		}
	}
	if err := a.Mail.Validate("mail", ProtocolIMAP, ProtocolPOP3); err != nil {
		return err
	}
	if a.HasTransport() {
		if err := a.Transport.Validate("transport", ProtocolSMTP); err != nil {
			return err
		}
	}
	if a.TransportAuth != "" {
		if _, err := ParseTransportAuth(string(a.TransportAuth)); err != nil {
			return err
		}
	}
	if a.EffectiveTransportAuth() == TransportAuthCustom && a.HasTransport() && a.Transport.Login == "" {
		return invalid("transport_login", "custom transport auth needs a login")
	}
	return nil
}
