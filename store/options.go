package store

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/rbaliyan/groupware/contact"
)

// SortOrder represents the sort direction.
type SortOrder int

const (
	// SortAsc sorts in ascending order.
	SortAsc SortOrder = 1
	// SortDesc sorts in descending order.
	SortDesc SortOrder = -1
)

// ListOptions configures contact listing.
type ListOptions struct {
	Limit  int
	Offset int
	// SortBy is the field to order by. Zero orders by contact.SortKey.
	SortBy    contact.Field
	SortOrder SortOrder
	// Fields limits the returned contacts to these fields plus the
	// identity fields. Empty returns complete contacts.
	Fields []contact.Field
	// CreatedBy keeps only the contacts created by this user when set.
	CreatedBy string
}

// Owns reports whether c passes the CreatedBy restriction.
func (o ListOptions) Owns(c *contact.Contact) bool {
	return o.CreatedBy == "" || c.CreatedBy == o.CreatedBy
}

// Validate reports unknown or unsortable fields.
func (o ListOptions) Validate() error {
	if o.Limit < 0 || o.Offset < 0 {
		return fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}
	if o.SortBy != 0 {
		if !o.SortBy.Valid() {
			return fmt.Errorf("%w: unknown sort field %d", ErrInvalidQuery, int(o.SortBy))
		}
		switch o.SortBy.Kind() {
		case contact.KindBytes, contact.KindDistributionList, contact.KindLinks:
			return fmt.Errorf("%w: cannot sort by %s", ErrInvalidQuery, o.SortBy)
		}
	}
	for _, f := range o.Fields {
		if !f.Valid() {
			return fmt.Errorf("%w: unknown field %d", ErrInvalidQuery, int(f))
		}
	}
	return nil
}

// Comparator returns the in-memory ordering for the options.
func (o ListOptions) Comparator() contact.Comparator {
	var c contact.Comparator
	if o.SortBy == 0 {
		c = contact.AlphanumericComparator(language.Und)
	} else {
		c = contact.FieldComparator(o.SortBy, language.Und)
	}
	if o.SortOrder == SortDesc {
		c = contact.Reverse(c)
	}
	return c
}

// DefaultSearchFields are matched when a ContactQuery names no fields.
var DefaultSearchFields = []contact.Field{
	contact.FieldDisplayName,
	contact.FieldGivenName,
	contact.FieldSurName,
	contact.FieldNickname,
	contact.FieldCompany,
	contact.FieldEmail1,
	contact.FieldEmail2,
	contact.FieldEmail3,
}

// ContactQuery is a pattern search over one or more folders.
//
// The pattern is matched case-insensitively against each search field. A
// pattern containing '*' (any run) or '?' (one character) must match the
// whole value. Other patterns match anywhere in the value, or only at its
// start with Prefix set. An empty pattern or "*" matches every contact.
type ContactQuery struct {
	Folders []string
	Pattern string
	// Fields to match; DefaultSearchFields when empty. Only string fields
	// can be searched.
	Fields []contact.Field
	// EmailOnly restricts results to contacts with at least one e-mail
	// address and to distribution lists.
	EmailOnly bool
	Prefix    bool
	Options   ListOptions
}

// SearchFields returns the fields the query matches against.
func (q ContactQuery) SearchFields() []contact.Field {
	if len(q.Fields) == 0 {
		return DefaultSearchFields
	}
	return q.Fields
}

// Validate checks the folders, search fields and options.
func (q ContactQuery) Validate() error {
	if len(q.Folders) == 0 {
		return ErrInvalidFolderID
	}
	for _, f := range q.Folders {
		if f == "" {
			return ErrInvalidFolderID
		}
	}
	for _, f := range q.SearchFields() {
		if !f.Valid() || f.Kind() != contact.KindString {
			return fmt.Errorf("%w: cannot search field %d", ErrInvalidQuery, int(f))
		}
	}
	return q.Options.Validate()
}

// MatchesAll reports whether the pattern selects every contact.
func (q ContactQuery) MatchesAll() bool {
	p := strings.TrimSpace(q.Pattern)
	return p == "" || strings.Trim(p, "*") == ""
}

func (q ContactQuery) wildcard() bool {
	return strings.ContainsAny(q.Pattern, "*?")
}

// LikePattern translates the pattern for a SQL "LIKE ... ESCAPE '\'"
// against a lower-cased column.
func (q ContactQuery) LikePattern() string {
	var b strings.Builder
	p := strings.ToLower(strings.TrimSpace(q.Pattern))
	wild := q.wildcard()
	if !wild && !q.Prefix {
		b.WriteByte('%')
	}
	for _, r := range p {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	if !wild {
		b.WriteByte('%')
	}
	return b.String()
}

// Regexp translates the pattern into a case-sensitive regular expression
// source; callers add case folding the way their engine does it.
func (q ContactQuery) Regexp() string {
	p := strings.TrimSpace(q.Pattern)
	if !q.wildcard() {
		if q.Prefix {
			return "^" + regexp.QuoteMeta(p)
		}
		return regexp.QuoteMeta(p)
	}
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range p {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// Matcher compiles the query into a predicate for in-memory filtering.
// Folder membership is not checked.
func (q ContactQuery) Matcher() (func(*contact.Contact) bool, error) {
	var re *regexp.Regexp
	if !q.MatchesAll() {
		var err error
		if re, err = regexp.Compile("(?is)" + q.Regexp()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}
	fields := q.SearchFields()
	return func(c *contact.Contact) bool {
		if q.EmailOnly && len(c.Emails()) == 0 && !c.IsDistributionList() {
			return false
		}
		if re == nil {
			return true
		}
		for _, f := range fields {
			if v := contact.String(c, f); v != "" && re.MatchString(v) {
				return true
			}
		}
		return false
	}, nil
}

// Project returns a copy of c holding only fields and the identity fields.
// An empty fields list returns c unchanged.
func Project(c *contact.Contact, fields []contact.Field) *contact.Contact {
	if len(fields) == 0 || c == nil {
		return c
	}
	out := &contact.Contact{
		ID:           c.ID,
		FolderID:     c.FolderID,
		CreatedBy:    c.CreatedBy,
		ModifiedBy:   c.ModifiedBy,
		CreationDate: c.CreationDate,
		LastModified: c.LastModified,
		UID:          c.UID,
		UseCount:     c.UseCount,
	}
	_ = contact.Copy(out, c, fields)
	return out
}
