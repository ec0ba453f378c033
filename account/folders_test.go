package account

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultFolderNames(t *testing.T) {
	tests := []struct {
		provider Provider
		kind     FolderKind
		want     string
	}{
		{ProviderGeneric, FolderSent, "Sent"},
		{ProviderGmail, FolderSent, "[Gmail]/Sent Mail"},
		{ProviderGmail, FolderArchive, "[Gmail]/All Mail"},
		{ProviderOutlook, FolderSpam, "Junk Email"},
		{ProviderOutlook, FolderTrash, "Deleted Items"},
		{"unknown", FolderDrafts, "Drafts"},
		{ProviderGeneric, FolderInbox, InboxName},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider)+"/"+tt.kind.String(), func(t *testing.T) {
			if got := DefaultFolderNames(tt.provider).Get(tt.kind); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDetectProvider(t *testing.T) {
	tests := map[string]Provider{
		"imap.gmail.com":        ProviderGmail,
		"IMAP.GMAIL.COM.":       ProviderGmail,
		"outlook.office365.com": ProviderOutlook,
		"imap-mail.outlook.com": ProviderOutlook,
		"mail.example.com":      ProviderGeneric,
	}
	for host, want := range tests {
		if got := DetectProvider(host); got != want {
			t.Errorf("%s: expected %q, got %q", host, want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	d := DefaultFolders{Names: FolderNames{Sent: "Outbox"}}
	got := d.Resolve(DefaultFolderNames(ProviderGeneric))
	want := DefaultFolderNames(ProviderGeneric)
	want.Sent = "Outbox"
	if diff := cmp.Diff(want, got.Names); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if d.Names.Drafts != "" {
		t.Error("Resolve modified the receiver")
	}
}

func TestFullNameFor(t *testing.T) {
	d := DefaultFolders{
		Names:     FolderNames{Drafts: "Drafts", Sent: "INBOX.Sent", Trash: "Trash"},
		FullNames: FolderNames{Trash: "INBOX.Deleted"},
	}
	tests := []struct {
		kind   FolderKind
		prefix string
		want   string
	}{
		{FolderDrafts, "INBOX", "INBOX.Drafts"},
		{FolderDrafts, "INBOX.", "INBOX.Drafts"},
		{FolderDrafts, "", "Drafts"},
		{FolderSent, "INBOX", "INBOX.Sent"},
		{FolderTrash, "INBOX", "INBOX.Deleted"},
		{FolderSpam, "INBOX", ""},
		{FolderInbox, "INBOX", "INBOX"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.prefix, func(t *testing.T) {
			if got := d.FullNameFor(tt.kind, tt.prefix, '.'); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseFolderKind(t *testing.T) {
	for _, k := range append([]FolderKind{FolderInbox}, Kinds()...) {
		got, err := ParseFolderKind(k.String())
		if err != nil || got != k {
			t.Errorf("%v: got %v %v", k, got, err)
		}
	}
	if _, err := ParseFolderKind("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestUnifiedMail(t *testing.T) {
	accounts := []*Account{
		{
			ID: 2, UnifiedMailEnabled: true,
			Folders: DefaultFolders{Names: FolderNames{Drafts: "Drafts", Sent: "Sent"}},
			Properties: map[string]string{
				PropertyFolderPrefix:    "INBOX",
				PropertyFolderSeparator: ".",
			},
		},
		{ID: 1, UnifiedMailEnabled: false, Folders: DefaultFolders{Names: DefaultFolderNames(ProviderGeneric)}},
		{ID: 0, UnifiedMailEnabled: true, Folders: DefaultFolders{Names: DefaultFolderNames(ProviderGmail)}},
		nil,
	}
	u := NewUnifiedMail(accounts)

	if diff := cmp.Diff([]int{0, 2}, u.AccountIDs()); diff != "" {
		t.Errorf("account ids (-want +got):\n%s", diff)
	}
	if !u.Enabled() {
		t.Error("expected enabled")
	}

	want := map[FolderKind][]FolderRef{
		FolderInbox:  {{0, "INBOX"}, {2, "INBOX"}},
		FolderDrafts: {{0, "[Gmail]/Drafts"}, {2, "INBOX.Drafts"}},
		FolderSent:   {{0, "[Gmail]/Sent Mail"}, {2, "INBOX.Sent"}},
		FolderSpam:   {{0, "[Gmail]/Spam"}},
		FolderTrash:  {{0, "[Gmail]/Trash"}},
	}
	if diff := cmp.Diff(want, u.Folders()); diff != "" {
		t.Errorf("folders (-want +got):\n%s", diff)
	}

	ref, ok := u.Resolve(FolderSent, 2)
	if !ok || ref.ID() != "2/INBOX.Sent" {
		t.Errorf("unexpected resolve %v %v", ref, ok)
	}
	if _, ok := u.Resolve(FolderSpam, 2); ok {
		t.Error("account 2 has no spam folder")
	}

	virtual := u.Account()
	if virtual.ID != UnifiedMailAccountID || virtual.Mail.Protocol != ProtocolUnifiedMail {
		t.Errorf("unexpected virtual account %+v", virtual)
	}
}

func TestUnifiedMailEmpty(t *testing.T) {
	u := NewUnifiedMail(nil)
	if u.Enabled() {
		t.Error("expected disabled")
	}
	if len(u.Folders()) != 0 {
		t.Errorf("expected no folders, got %v", u.Folders())
	}
}
