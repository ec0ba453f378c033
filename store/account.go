package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rbaliyan/groupware/account"
)

// MergeAccount returns the stored account with the listed attributes of
// update written over it. An empty attrs list replaces every attribute and
// the properties. ID and UserID always stay those of stored, and
// LastModified is set to Now.
func MergeAccount(stored, update *account.Account, attrs []account.Attribute) (*account.Account, error) {
	out := stored.Clone()
	full := len(attrs) == 0
	if full {
		attrs = account.Attributes()
	}
	attrs = slices.DeleteFunc(slices.Clone(attrs), func(a account.Attribute) bool { return a == account.AttrID })
	if err := account.Apply(out, update, attrs); err != nil {
		return nil, fmt.Errorf("store: update account %d: %w", stored.ID, err)
	}
	if full {
		out.Properties = maps.Clone(update.Properties)
	}
	out.ID, out.UserID = stored.ID, stored.UserID
	out.LastModified = Now()
	return out, nil
}

// NextAccountID returns the id the next account of a user receives given
// the ids already in use.
func NextAccountID(used []int) int {
	if len(used) == 0 {
		return account.DefaultAccountID
	}
	return slices.Max(used) + 1
}
