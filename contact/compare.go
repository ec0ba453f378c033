package contact

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders two contacts. It returns a negative number when a sorts
// before b, zero when they are equal and a positive number otherwise.
type Comparator func(a, b *Contact) int

// collator serialises access to a collate.Collator, which is not safe for
// concurrent use.
type collator struct {
	mu sync.Mutex
	c  *collate.Collator
}

func newCollator(tag language.Tag) *collator {
	return &collator{c: collate.New(tag, collate.IgnoreCase, collate.Numeric)}
}

func (c *collator) compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}

// AlphanumericComparator orders contacts by their sort key using the
// collation rules of tag. Case is ignored and digit runs compare as numbers,
// so "Room 9" sorts before "Room 10". Contacts without a sort key go last.
func AlphanumericComparator(tag language.Tag) Comparator {
	coll := newCollator(tag)
	return func(a, b *Contact) int {
		ka, kb := SortKey(a), SortKey(b)
		switch {
		case ka == "" && kb == "":
			return 0
		case ka == "":
			return 1
		case kb == "":
			return -1
		}
		return coll.compare(ka, kb)
	}
}

// SortKey is the text a contact is sorted by: the first non-empty of
// "surname given-name", display name, company and the e-mail addresses.
func SortKey(c *Contact) string {
	if c == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(c.SurName) + " " + strings.TrimSpace(c.GivenName))
	for _, s := range []string{name, c.DisplayName, c.Company, c.Email1, c.Email2, c.Email3} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// FieldComparator orders contacts by one field. Strings are collated with
// the rules of tag, other kinds use their natural order. Unset values sort
// last.
func FieldComparator(f Field, tag language.Tag) Comparator {
	coll := newCollator(tag)
	return func(a, b *Contact) int {
		ca, cb := Contains(a, f), Contains(b, f)
		switch {
		case !ca && !cb:
			return 0
		case !ca:
			return 1
		case !cb:
			return -1
		}
		x, _ := f.Switch(Getter{}, a, nil)
		y, _ := f.Switch(Getter{}, b, nil)
		switch xv := x.(type) {
		case string:
			return coll.compare(xv, y.(string))
		case int:
			return cmp.Compare(xv, y.(int))
		case bool:
			// true first
			if xv == y.(bool) {
				return 0
			}
			if xv {
				return -1
			}
			return 1
		case time.Time:
			return xv.Compare(y.(time.Time))
		case []byte:
			return cmp.Compare(len(xv), len(y.([]byte)))
		case []DistributionListEntry:
			return cmp.Compare(len(xv), len(y.([]DistributionListEntry)))
		case []Link:
			return cmp.Compare(len(xv), len(y.([]Link)))
		}
		return 0
	}
}

// UseCountComparator puts frequently used contacts first. Ties are broken
// by fallback, or left equal when fallback is nil.
func UseCountComparator(fallback Comparator) Comparator {
	return func(a, b *Contact) int {
		if c := cmp.Compare(b.UseCount, a.UseCount); c != 0 {
			return c
		}
		if fallback != nil {
			return fallback(a, b)
		}
		return 0
	}
}

// Reverse inverts a comparator.
func Reverse(c Comparator) Comparator {
	return func(a, b *Contact) int { return c(b, a) }
}

// SortContacts sorts cs in place. Equal contacts keep their order.
func SortContacts(cs []*Contact, c Comparator) {
	slices.SortStableFunc(cs, c)
}
