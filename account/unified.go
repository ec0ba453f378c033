package account

import (
	"slices"
	"strconv"
)

// UnifiedMailAccountID is the reserved id of the virtual Unified Mail
// account. Stored accounts never use it.
const UnifiedMailAccountID = -1

// UnifiedMailName is the display name of the virtual account.
const UnifiedMailName = "Unified Mail"

// UnifiedKinds are the folder kinds Unified Mail aggregates, in display
// order.
var UnifiedKinds = []FolderKind{FolderInbox, FolderDrafts, FolderSent, FolderSpam, FolderTrash}

// FolderRef points at a folder of a real account.
type FolderRef struct {
	AccountID int    `json:"account_id"`
	FullName  string `json:"full_name"`
}

// ID returns the composite folder id "account/fullname".
func (r FolderRef) ID() string {
	return strconv.Itoa(r.AccountID) + "/" + r.FullName
}

// UnifiedMail aggregates the standard folders of the accounts that opted
// in. It is an immutable snapshot.
type UnifiedMail struct {
	accounts []*Account
}

// NewUnifiedMail snapshots the accounts with UnifiedMailEnabled, ordered by
// account id.
func NewUnifiedMail(accounts []*Account) *UnifiedMail {
	u := &UnifiedMail{}
	for _, a := range accounts {
		if a != nil && a.UnifiedMailEnabled && a.ID != UnifiedMailAccountID {
			u.accounts = append(u.accounts, a.Clone())
		}
	}
	slices.SortFunc(u.accounts, func(x, y *Account) int { return x.ID - y.ID })
	return u
}

// Enabled reports whether at least one account takes part.
func (u *UnifiedMail) Enabled() bool { return len(u.accounts) > 0 }

// AccountIDs returns the ids of the aggregated accounts in order.
func (u *UnifiedMail) AccountIDs() []int {
	ids := make([]int, len(u.accounts))
	for i, a := range u.accounts {
		ids[i] = a.ID
	}
	return ids
}

// Folders returns, per aggregated kind, the real folders backing it.
// Accounts without a name for a kind are left out of that kind.
func (u *UnifiedMail) Folders() map[FolderKind][]FolderRef {
	out := make(map[FolderKind][]FolderRef, len(UnifiedKinds))
	for _, k := range UnifiedKinds {
		for _, a := range u.accounts {
			full := a.FolderFullName(k)
			if full == "" {
				continue
			}
			out[k] = append(out[k], FolderRef{AccountID: a.ID, FullName: full})
		}
	}
	return out
}

// Resolve maps a virtual folder kind to the real folder of one account.
func (u *UnifiedMail) Resolve(k FolderKind, accountID int) (FolderRef, bool) {
	for _, ref := range u.Folders()[k] {
		if ref.AccountID == accountID {
			return ref, true
		}
	}
	return FolderRef{}, false
}

// Account returns the description of the virtual account.
func (u *UnifiedMail) Account() *Account {
	return &Account{
		ID:   UnifiedMailAccountID,
		Name: UnifiedMailName,
		Mail: ServerConfig{Protocol: ProtocolUnifiedMail},
		Folders: DefaultFolders{Names: FolderNames{
			Drafts: "Drafts",
			Sent:   "Sent",
			Spam:   "Spam",
			Trash:  "Trash",
		}},
	}
}
