// Package storetest holds behaviour tests shared by every ContactStore and
// AccountStore backend. Backend packages call Contacts and Accounts from
// their own tests with a constructor for a fresh, connected store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/store"
)

// settle waits long enough for store timestamps to advance.
func settle() { time.Sleep(5 * time.Millisecond) }

func mustCreate(t *testing.T, s store.ContactStore, c *contact.Contact) *contact.Contact {
	t.Helper()
	saved, err := s.CreateContact(context.Background(), c)
	if err != nil {
		t.Fatalf("create %q: %v", c.DisplayName, err)
	}
	return saved
}

func ids(cs []*contact.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// Contacts runs the ContactStore behaviour tests. newStore must return a
// connected store with no data.
func Contacts(t *testing.T, newStore func(t *testing.T) store.ContactStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		in := &contact.Contact{
			FolderID:         "f1",
			CreatedBy:        "u1",
			GivenName:        "Ann",
			SurName:          "Smith",
			DisplayName:      "Ann Smith",
			Email1:           "ann@example.com",
			Birthday:         time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC),
			Categories:       "friends",
			ColorLabel:       3,
			PrivateFlag:      true,
			Image1:           []byte{0x89, 'P', 'N', 'G'},
			ImageContentType: "image/png",
			Links:            []contact.Link{{ContactID: "other", DisplayName: "Bob"}},
		}
		in.UserFields[4] = "custom"

		saved := mustCreate(t, s, in)
		if saved.ID == "" || saved.UID == "" {
			t.Fatalf("expected assigned ids, got %q %q", saved.ID, saved.UID)
		}
		if saved.CreationDate.IsZero() || !saved.LastModified.Equal(saved.CreationDate) {
			t.Errorf("unexpected timestamps %v %v", saved.CreationDate, saved.LastModified)
		}
		if in.ID != "" {
			t.Error("CreateContact modified its argument")
		}

		got, err := s.GetContact(ctx, "f1", saved.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if diff := cmp.Diff(saved, got); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	})

	t.Run("get errors", func(t *testing.T) {
		s := newStore(t)
		saved := mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "X"})
		if _, err := s.GetContact(ctx, "f2", saved.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("wrong folder: expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetContact(ctx, "f1", "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetContact(ctx, "f1", ""); !errors.Is(err, store.ErrInvalidID) {
			t.Errorf("expected ErrInvalidID, got %v", err)
		}
		if _, err := s.GetContact(ctx, "", "x"); !errors.Is(err, store.ErrInvalidFolderID) {
			t.Errorf("expected ErrInvalidFolderID, got %v", err)
		}
		if _, err := s.CreateContact(ctx, &contact.Contact{DisplayName: "no folder"}); !errors.Is(err, store.ErrInvalidFolderID) {
			t.Errorf("expected ErrInvalidFolderID, got %v", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, &contact.Contact{ID: "fixed", FolderID: "f1", DisplayName: "A"})
		if _, err := s.CreateContact(ctx, &contact.Contact{ID: "fixed", FolderID: "f1", DisplayName: "B"}); !errors.Is(err, store.ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("list sorted and paged", func(t *testing.T) {
		s := newStore(t)
		for _, n := range []struct{ given, sur string }{
			{"Carl", "Young"}, {"Ann", "Adams"}, {"Bea", "Miller"}, {"Dan", "Brown"},
		} {
			mustCreate(t, s, &contact.Contact{FolderID: "f1", GivenName: n.given, SurName: n.sur, DisplayName: n.given + " " + n.sur})
		}
		mustCreate(t, s, &contact.Contact{FolderID: "f2", GivenName: "Zed", SurName: "Aaron"})

		list, err := s.ListContacts(ctx, "f1", store.ListOptions{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var names []string
		for _, c := range list.Contacts {
			names = append(names, c.SurName)
		}
		if diff := cmp.Diff([]string{"Adams", "Brown", "Miller", "Young"}, names); diff != "" {
			t.Errorf("order (-want +got):\n%s", diff)
		}
		if list.Total != 4 || list.HasMore {
			t.Errorf("expected total 4 without more, got %d %v", list.Total, list.HasMore)
		}

		page, err := s.ListContacts(ctx, "f1", store.ListOptions{Limit: 2, Offset: 1, SortBy: contact.FieldGivenName, SortOrder: store.SortDesc})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		names = names[:0]
		for _, c := range page.Contacts {
			names = append(names, c.GivenName)
		}
		if diff := cmp.Diff([]string{"Carl", "Bea"}, names); diff != "" {
			t.Errorf("page (-want +got):\n%s", diff)
		}
		if page.Total != 4 || !page.HasMore {
			t.Errorf("expected total 4 with more, got %d %v", page.Total, page.HasMore)
		}

		if _, err := s.ListContacts(ctx, "f1", store.ListOptions{SortBy: contact.FieldImage1}); !errors.Is(err, store.ErrInvalidQuery) {
			t.Errorf("expected ErrInvalidQuery, got %v", err)
		}
	})

	t.Run("list projection", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, &contact.Contact{FolderID: "f1", GivenName: "Ann", SurName: "Smith", Email1: "ann@example.com", Note: "long note"})
		list, err := s.ListContacts(ctx, "f1", store.ListOptions{Fields: []contact.Field{contact.FieldEmail1}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		c := list.Contacts[0]
		if c.Email1 != "ann@example.com" || c.ID == "" {
			t.Errorf("projected fields missing: %+v", c)
		}
		if c.Note != "" || c.GivenName != "" {
			t.Errorf("unprojected fields returned: %+v", c)
		}
	})

	t.Run("search", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "Ann Smith", SurName: "Smith", Email1: "ann@example.com"})
		mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "Bob Smithers", SurName: "Smithers"})
		mustCreate(t, s, &contact.Contact{FolderID: "f2", DisplayName: "Carla Jones", Company: "Smith & Co", Email1: "carla@example.com"})
		mustCreate(t, s, &contact.Contact{FolderID: "f3", DisplayName: "Smith Hidden"})

		tests := []struct {
			name string
			q    store.ContactQuery
			want []string
		}{
			{"substring", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "SMITH"}, []string{"Ann Smith", "Bob Smithers", "Carla Jones"}},
			{"prefix", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "smi", Prefix: true}, []string{"Ann Smith", "Bob Smithers", "Carla Jones"}},
			{"prefix misses middle", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "mith", Prefix: true}, nil},
			{"wildcard", store.ContactQuery{Folders: []string{"f1"}, Pattern: "*ers", Fields: []contact.Field{contact.FieldSurName}}, []string{"Bob Smithers"}},
			{"email only", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "*", EmailOnly: true}, []string{"Ann Smith", "Carla Jones"}},
			{"field restricted", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "smith", Fields: []contact.Field{contact.FieldCompany}}, []string{"Carla Jones"}},
			{"limit", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "smith", Options: store.ListOptions{Limit: 1, SortBy: contact.FieldDisplayName}}, []string{"Ann Smith"}},
			{"percent is literal", store.ContactQuery{Folders: []string{"f1", "f2"}, Pattern: "%"}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.q.Options.SortBy == 0 {
					tt.q.Options.SortBy = contact.FieldDisplayName
				}
				list, err := s.SearchContacts(ctx, tt.q)
				if err != nil {
					t.Fatalf("search: %v", err)
				}
				var got []string
				for _, c := range list.Contacts {
					got = append(got, c.DisplayName)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
			})
		}

		if _, err := s.SearchContacts(ctx, store.ContactQuery{Pattern: "x"}); !errors.Is(err, store.ErrInvalidFolderID) {
			t.Errorf("expected ErrInvalidFolderID, got %v", err)
		}
		if _, err := s.SearchContacts(ctx, store.ContactQuery{Folders: []string{"f1"}, Fields: []contact.Field{contact.FieldBirthday}}); !errors.Is(err, store.ErrInvalidQuery) {
			t.Errorf("expected ErrInvalidQuery, got %v", err)
		}
	})

	t.Run("update with optimistic concurrency", func(t *testing.T) {
		s := newStore(t)
		saved := mustCreate(t, s, &contact.Contact{FolderID: "f1", CreatedBy: "u1", DisplayName: "Ann"})
		seen := saved.LastModified

		edit := saved.Clone()
		edit.DisplayName = "Ann Smith"
		edit.CreatedBy = "intruder"
		updated, err := s.UpdateContact(ctx, edit, seen)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.LastModified.After(seen) {
			t.Errorf("LastModified not advanced: %v <= %v", updated.LastModified, seen)
		}
		if updated.CreatedBy != "u1" || !updated.CreationDate.Equal(saved.CreationDate) {
			t.Errorf("creation data changed: %+v", updated)
		}

		stale := saved.Clone()
		stale.DisplayName = "Stale"
		if _, err := s.UpdateContact(ctx, stale, seen); !errors.Is(err, store.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		got, _ := s.GetContact(ctx, "f1", saved.ID)
		if got.DisplayName != "Ann Smith" {
			t.Errorf("conflicting update was written: %q", got.DisplayName)
		}

		if _, err := s.UpdateContact(ctx, stale, time.Time{}); err != nil {
			t.Errorf("unconditional update: %v", err)
		}

		missing := &contact.Contact{ID: "missing", FolderID: "f1"}
		if _, err := s.UpdateContact(ctx, missing, time.Time{}); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("back-to-back updates", func(t *testing.T) {
		s := newStore(t)
		cur := mustCreate(t, s, &contact.Contact{FolderID: "f1", CreatedBy: "u1", DisplayName: "Ann"})
		for i := range 50 {
			seen := cur.LastModified
			edit := cur.Clone()
			edit.Nickname = fmt.Sprintf("n%d", i)
			next, err := s.UpdateContact(ctx, edit, seen)
			if err != nil {
				t.Fatalf("update %d: %v", i, err)
			}
			if !next.LastModified.After(seen) {
				t.Fatalf("update %d: LastModified not advanced: %v <= %v", i, next.LastModified, seen)
			}

			stale := cur.Clone()
			stale.Nickname = "stale"
			if _, err := s.UpdateContact(ctx, stale, seen); !errors.Is(err, store.ErrConflict) {
				t.Fatalf("update %d: expected ErrConflict for stale copy, got %v", i, err)
			}
			cur = next
		}
		got, err := s.GetContact(ctx, "f1", cur.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Nickname != "n49" {
			t.Errorf("expected last accepted write, got %q", got.Nickname)
		}
	})

	t.Run("created by restriction", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, &contact.Contact{FolderID: "shared", CreatedBy: "alice", DisplayName: "Ann", Email1: "ann@example.com"})
		mustCreate(t, s, &contact.Contact{FolderID: "shared", CreatedBy: "bob", DisplayName: "Bert", Email1: "bert@example.com"})

		list, err := s.ListContacts(ctx, "shared", store.ListOptions{CreatedBy: "alice"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if list.Total != 1 || len(list.Contacts) != 1 || list.Contacts[0].DisplayName != "Ann" {
			t.Errorf("expected only alice's contact, got total %d: %v", list.Total, ids(list.Contacts))
		}

		found, err := s.SearchContacts(ctx, store.ContactQuery{
			Folders: []string{"shared"},
			Pattern: "b",
			Options: store.ListOptions{CreatedBy: "alice"},
		})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if found.Total != 0 {
			t.Errorf("expected bob's contact hidden from alice, got %v", ids(found.Contacts))
		}

		all, err := s.ListContacts(ctx, "shared", store.ListOptions{})
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if all.Total != 2 {
			t.Errorf("expected 2 contacts without restriction, got %d", all.Total)
		}
	})

	t.Run("use count", func(t *testing.T) {
		s := newStore(t)
		saved := mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "Ann"})
		for range 3 {
			if err := s.IncrementUseCount(ctx, "f1", saved.ID); err != nil {
				t.Fatalf("increment: %v", err)
			}
		}
		got, _ := s.GetContact(ctx, "f1", saved.ID)
		if got.UseCount != 3 {
			t.Errorf("expected use count 3, got %d", got.UseCount)
		}
		if !got.LastModified.Equal(saved.LastModified) {
			t.Error("IncrementUseCount touched LastModified")
		}

		edit := got.Clone()
		edit.UseCount = 0
		updated, err := s.UpdateContact(ctx, edit, time.Time{})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.UseCount != 3 {
			t.Errorf("update reset use count to %d", updated.UseCount)
		}
		if err := s.IncrementUseCount(ctx, "f1", "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		saved := mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "Ann"})
		if err := s.DeleteContact(ctx, "f1", saved.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetContact(ctx, "f1", saved.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.DeleteContact(ctx, "f1", saved.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("modified since", func(t *testing.T) {
		s := newStore(t)
		a := mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "A"})
		settle()
		b := mustCreate(t, s, &contact.Contact{FolderID: "f1", DisplayName: "B"})
		mustCreate(t, s, &contact.Contact{FolderID: "f2", DisplayName: "other folder"})
		settle()
		a.DisplayName = "A2"
		if _, err := s.UpdateContact(ctx, a, time.Time{}); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := s.ModifiedSince(ctx, "f1", a.LastModified)
		if err != nil {
			t.Fatalf("modified since: %v", err)
		}
		if diff := cmp.Diff([]string{b.ID, a.ID}, ids(got)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func newAccount(userID, address string) *account.Account {
	return &account.Account{
		UserID:         userID,
		Name:           address,
		PrimaryAddress: address,
		Mail: account.ServerConfig{
			Protocol: account.ProtocolIMAP,
			Server:   "imap.example.com",
			Port:     993,
			Secure:   true,
			Login:    address,
			Password: "sealed",
		},
		Transport: account.ServerConfig{
			Protocol: account.ProtocolSMTP,
			Server:   "smtp.example.com",
			Port:     587,
			StartTLS: true,
		},
		Folders: account.DefaultFolders{Names: account.DefaultFolderNames(account.ProviderGeneric)},
		Properties: map[string]string{
			account.PropertyFolderSeparator: ".",
		},
	}
}

// Accounts runs the AccountStore behaviour tests. newStore must return a
// connected store with no data.
func Accounts(t *testing.T, newStore func(t *testing.T) store.AccountStore) {
	ctx := context.Background()

	t.Run("insert numbers per user", func(t *testing.T) {
		s := newStore(t)
		for i, tt := range []struct {
			user, address string
			want          int
		}{
			{"u1", "ann@example.com", 0},
			{"u1", "ann@work.example.com", 1},
			{"u2", "bob@example.com", 0},
			{"u1", "ann@club.example.com", 2},
		} {
			id, err := s.InsertAccount(ctx, newAccount(tt.user, tt.address))
			if err != nil {
				t.Fatalf("insert %d: %v", i, err)
			}
			if id != tt.want {
				t.Errorf("insert %d: expected id %d, got %d", i, tt.want, id)
			}
		}

		list, err := s.ListAccounts(ctx, "u1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var got []int
		for _, a := range list {
			got = append(got, a.ID)
		}
		if diff := cmp.Diff([]int{0, 1, 2}, got); diff != "" {
			t.Errorf("ids (-want +got):\n%s", diff)
		}

		def, err := s.GetDefaultAccount(ctx, "u2")
		if err != nil || def.PrimaryAddress != "bob@example.com" {
			t.Errorf("default account: %+v %v", def, err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		in := newAccount("u1", "ann@example.com")
		in.ReplyTo = "team@example.com"
		in.TransportAuth = account.TransportAuthCustom
		in.Transport.Login = "relay"
		in.Transport.Password = "relay-sealed"
		in.UnifiedMailEnabled = true
		in.SpamHandler = "DefaultSpamHandler"
		in.Folders.FullNames.Trash = "INBOX.Deleted"

		id, err := s.InsertAccount(ctx, in)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		got, err := s.GetAccount(ctx, "u1", id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.LastModified.IsZero() {
			t.Error("LastModified not set")
		}
		want := in.Clone()
		want.ID = id
		want.LastModified = got.LastModified
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicate address", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.InsertAccount(ctx, newAccount("u1", "ann@example.com")); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if _, err := s.InsertAccount(ctx, newAccount("u1", "ANN@example.com")); !errors.Is(err, store.ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
		if _, err := s.InsertAccount(ctx, newAccount("u2", "ann@example.com")); err != nil {
			t.Errorf("other user may reuse the address: %v", err)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.InsertAccount(ctx, newAccount("u1", "ann@example.com"))

		upd := newAccount("u1", "changed@example.com")
		upd.ID = id
		upd.Name = "Renamed"
		upd.UnifiedMailEnabled = true
		if err := s.UpdateAccount(ctx, "u1", upd, []account.Attribute{account.AttrName, account.AttrUnifiedMailEnabled}); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, _ := s.GetAccount(ctx, "u1", id)
		if got.Name != "Renamed" || !got.UnifiedMailEnabled {
			t.Errorf("listed attributes not written: %+v", got)
		}
		if got.PrimaryAddress != "ann@example.com" {
			t.Errorf("unlisted attribute written: %q", got.PrimaryAddress)
		}

		upd.ID = 7
		if err := s.UpdateAccount(ctx, "u1", upd, nil); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		s.InsertAccount(ctx, newAccount("u1", "ann@example.com"))
		id, _ := s.InsertAccount(ctx, newAccount("u1", "ann@work.example.com"))

		if err := s.DeleteAccount(ctx, "u1", account.DefaultAccountID); !errors.Is(err, store.ErrDefaultAccount) {
			t.Errorf("expected ErrDefaultAccount, got %v", err)
		}
		if err := s.DeleteAccount(ctx, "u1", id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetAccount(ctx, "u1", id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.DeleteAccount(ctx, "u1", id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}

		next, _ := s.InsertAccount(ctx, newAccount("u1", "ann@club.example.com"))
		if next != id {
			t.Errorf("expected freed id %d to be reused, got %d", id, next)
		}
	})

	t.Run("resolve primary address", func(t *testing.T) {
		s := newStore(t)
		s.InsertAccount(ctx, newAccount("u1", "ann@example.com"))
		s.InsertAccount(ctx, newAccount("u2", "bob@example.com"))
		s.InsertAccount(ctx, newAccount("u2", "bob@work.example.com"))

		user, id, err := s.ResolvePrimaryAddress(ctx, "Bob@Work.Example.com")
		if err != nil || user != "u2" || id != 1 {
			t.Errorf("got %q %d %v", user, id, err)
		}
		if _, _, err := s.ResolvePrimaryAddress(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		s := newStore(t)
		s.InsertAccount(ctx, newAccount("u1", "ann@example.com"))
		if err := s.InvalidateAccount(ctx, "u1", 0); err != nil {
			t.Errorf("invalidate account: %v", err)
		}
		if err := s.InvalidateAccounts(ctx, "u1"); err != nil {
			t.Errorf("invalidate accounts: %v", err)
		}
	})
}
