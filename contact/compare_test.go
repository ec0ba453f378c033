package contact

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func names(cs []*Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = SortKey(c)
	}
	return out
}

func TestAlphanumericComparator(t *testing.T) {
	cs := []*Contact{
		{SurName: "room 10"},
		{},
		{SurName: "Room 9"},
		{DisplayName: "alpha"},
		{Company: "Beta Corp"},
	}
	SortContacts(cs, AlphanumericComparator(language.English))
	want := []string{"alpha", "Beta Corp", "Room 9", "room 10", ""}
	got := names(cs)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestSortKey(t *testing.T) {
	tests := []struct {
		name string
		c    *Contact
		want string
	}{
		{"surname and given name", &Contact{GivenName: "Ann", SurName: "Smith", DisplayName: "X"}, "Smith Ann"},
		{"given name only", &Contact{GivenName: "Ann"}, "Ann"},
		{"display name", &Contact{DisplayName: "Team"}, "Team"},
		{"company", &Contact{Company: "Acme"}, "Acme"},
		{"email", &Contact{Email2: "x@example.com"}, "x@example.com"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SortKey(tt.c); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUseCountComparator(t *testing.T) {
	cs := []*Contact{
		{DisplayName: "C", UseCount: 1},
		{DisplayName: "B", UseCount: 5},
		{DisplayName: "A", UseCount: 5},
	}
	SortContacts(cs, UseCountComparator(AlphanumericComparator(language.English)))
	if cs[0].DisplayName != "A" || cs[1].DisplayName != "B" || cs[2].DisplayName != "C" {
		t.Errorf("unexpected order %v", names(cs))
	}

	SortContacts(cs, UseCountComparator(nil))
	if cs[2].DisplayName != "C" {
		t.Errorf("expected least used last, got %v", names(cs))
	}
}

func TestFieldComparator(t *testing.T) {
	early := &Contact{DisplayName: "early", Birthday: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)}
	late := &Contact{DisplayName: "late", Birthday: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	unset := &Contact{DisplayName: "unset"}

	cs := []*Contact{unset, late, early}
	SortContacts(cs, FieldComparator(FieldBirthday, language.English))
	if cs[0] != early || cs[1] != late || cs[2] != unset {
		t.Errorf("unexpected order %v", names(cs))
	}

	SortContacts(cs, Reverse(FieldComparator(FieldDisplayName, language.English)))
	if cs[0] != unset || cs[2] != early {
		t.Errorf("unexpected reverse order %v", names(cs))
	}

	a, b := &Contact{ColorLabel: 2}, &Contact{ColorLabel: 10}
	if FieldComparator(FieldColorLabel, language.Und)(a, b) >= 0 {
		t.Error("expected 2 before 10")
	}
}
