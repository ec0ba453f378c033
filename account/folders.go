package account

import (
	"fmt"
	"strings"
)

// FolderKind identifies a standard folder.
type FolderKind int

// Standard folders. FolderInbox only appears in Unified Mail folder lists;
// it has no configurable name.
const (
	FolderInbox FolderKind = iota
	FolderDrafts
	FolderSent
	FolderSpam
	FolderTrash
	FolderConfirmedSpam
	FolderConfirmedHam
	FolderArchive
)

// InboxName is the fixed full name of the inbox.
const InboxName = "INBOX"

var folderKindNames = [...]string{
	FolderInbox:         "inbox",
	FolderDrafts:        "drafts",
	FolderSent:          "sent",
	FolderSpam:          "spam",
	FolderTrash:         "trash",
	FolderConfirmedSpam: "confirmed_spam",
	FolderConfirmedHam:  "confirmed_ham",
	FolderArchive:       "archive",
}

func (k FolderKind) String() string {
	if k >= 0 && int(k) < len(folderKindNames) {
		return folderKindNames[k]
	}
	return fmt.Sprintf("FolderKind(%d)", int(k))
}

// ParseFolderKind parses the name returned by FolderKind.String.
func ParseFolderKind(s string) (FolderKind, error) {
	for i, name := range folderKindNames {
		if strings.EqualFold(s, name) {
			return FolderKind(i), nil
		}
	}
	return 0, fmt.Errorf("account: unknown folder kind %q", s)
}

// FolderNames holds one name per configurable standard folder.
type FolderNames struct {
	Drafts        string `json:"drafts,omitempty"`
	Sent          string `json:"sent,omitempty"`
	Spam          string `json:"spam,omitempty"`
	Trash         string `json:"trash,omitempty"`
	ConfirmedSpam string `json:"confirmed_spam,omitempty"`
	ConfirmedHam  string `json:"confirmed_ham,omitempty"`
	Archive       string `json:"archive,omitempty"`
}

func (n *FolderNames) ref(k FolderKind) *string {
	switch k {
	case FolderDrafts:
		return &n.Drafts
	case FolderSent:
		return &n.Sent
	case FolderSpam:
		return &n.Spam
	case FolderTrash:
		return &n.Trash
	case FolderConfirmedSpam:
		return &n.ConfirmedSpam
	case FolderConfirmedHam:
		return &n.ConfirmedHam
	case FolderArchive:
		return &n.Archive
	}
	return nil
}

// Get returns the name for k.
func (n FolderNames) Get(k FolderKind) string {
	if k == FolderInbox {
		return InboxName
	}
	if p := n.ref(k); p != nil {
		return *p
	}
	return ""
}

// Set sets the name for k. Setting FolderInbox has no effect.
func (n *FolderNames) Set(k FolderKind, name string) {
	if p := n.ref(k); p != nil {
		*p = name
	}
}

// Kinds lists the configurable folder kinds.
func Kinds() []FolderKind {
	return []FolderKind{FolderDrafts, FolderSent, FolderSpam, FolderTrash, FolderConfirmedSpam, FolderConfirmedHam, FolderArchive}
}

// Provider selects a family of default folder names.
type Provider string

// Known providers.
const (
	ProviderGeneric Provider = "generic"
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
)

// DetectProvider guesses the provider from a mail server host name.
func DetectProvider(host string) Provider {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	switch {
	case host == "imap.gmail.com" || host == "imap.googlemail.com" || strings.HasSuffix(host, ".gmail.com"):
		return ProviderGmail
	case strings.HasSuffix(host, "office365.com") || strings.HasSuffix(host, "outlook.com") ||
		strings.HasSuffix(host, "hotmail.com") || strings.HasSuffix(host, "live.com"):
		return ProviderOutlook
	}
	return ProviderGeneric
}

// DefaultFolderNames returns the standard folder names used by provider.
func DefaultFolderNames(provider Provider) FolderNames {
	switch provider {
	case ProviderGmail:
		return FolderNames{
			Drafts:        "[Gmail]/Drafts",
			Sent:          "[Gmail]/Sent Mail",
			Spam:          "[Gmail]/Spam",
			Trash:         "[Gmail]/Trash",
			ConfirmedSpam: "confirmed-spam",
			ConfirmedHam:  "confirmed-ham",
			Archive:       "[Gmail]/All Mail",
		}
	case ProviderOutlook:
		return FolderNames{
			Drafts:        "Drafts",
			Sent:          "Sent Items",
			Spam:          "Junk Email",
			Trash:         "Deleted Items",
			ConfirmedSpam: "confirmed-spam",
			ConfirmedHam:  "confirmed-ham",
			Archive:       "Archive",
		}
	default:
		return FolderNames{
			Drafts:        "Drafts",
			Sent:          "Sent",
			Spam:          "Spam",
			Trash:         "Trash",
			ConfirmedSpam: "confirmed-spam",
			ConfirmedHam:  "confirmed-ham",
			Archive:       "Archive",
		}
	}
}

// DefaultFolders holds the standard folder names of an account and,
// once known from the server, their full names.
type DefaultFolders struct {
	Names     FolderNames `json:"names"`
	FullNames FolderNames `json:"full_names"`
}

// Resolve fills every empty name from defaults and returns the result.
func (d DefaultFolders) Resolve(defaults FolderNames) DefaultFolders {
	for _, k := range Kinds() {
		if d.Names.Get(k) == "" {
			d.Names.Set(k, defaults.Get(k))
		}
	}
	return d
}

// FullName returns the known full name for k, falling back to the name.
func (d DefaultFolders) FullName(k FolderKind) string {
	if k == FolderInbox {
		return InboxName
	}
	if full := d.FullNames.Get(k); full != "" {
		return full
	}
	return d.Names.Get(k)
}

// FullNameFor returns the full name of k, building it from prefix and
// separator when no full name is stored. A name that already starts with
// the prefix is returned as is.
func (d DefaultFolders) FullNameFor(k FolderKind, prefix string, sep rune) string {
	if k == FolderInbox {
		return InboxName
	}
	if full := d.FullNames.Get(k); full != "" {
		return full
	}
	name := d.Names.Get(k)
	if name == "" || prefix == "" {
		return name
	}
	prefix = strings.TrimSuffix(prefix, string(sep))
	if name == prefix || strings.HasPrefix(name, prefix+string(sep)) {
		return name
	}
	return prefix + string(sep) + name
}
