package contact

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the value kind a field holds.
type Kind int

// Field kinds.
const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindDate // calendar date, stored as UTC midnight
	KindTime // instant
	KindBytes
	KindDistributionList
	KindLinks
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	case KindDistributionList:
		return "distribution_list"
	case KindLinks:
		return "links"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field identifies one attribute of a Contact. The numeric value is the
// stable protocol id of the attribute.
type Field int

// Sentinel errors for field access.
var (
	ErrUnknownField = errors.New("contact: unknown field")
	ErrWrongType    = errors.New("contact: wrong value type")
	ErrTooLong      = errors.New("contact: value too long")
	ErrInvalidValue = errors.New("contact: invalid value")
)

// FieldError reports a failed switch operation on a field.
type FieldError struct {
	Field Field
	Op    string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("contact: %s %s: %v", e.Op, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// fieldDef is one catalog entry.
type fieldDef struct {
	field    Field
	name     string
	column   string
	label    string
	jsonName string
	kind     Kind
	maxLen   int
	// ref returns a pointer to the backing struct field.
	ref func(c *Contact) any
}

var (
	catalog  = map[Field]*fieldDef{}
	byColumn = map[string]Field{}
	byJSON   = map[string]Field{}
	byName   = map[string]Field{}
	ordered  []Field
)

func init() {
	for i := range fieldTable {
		d := &fieldTable[i]
		if _, dup := catalog[d.field]; dup {
			panic(fmt.Sprintf("contact: duplicate field id %d", d.field))
		}
		if _, dup := byColumn[d.column]; dup {
			panic("contact: duplicate column " + d.column)
		}
		if _, dup := byJSON[d.jsonName]; dup {
			panic("contact: duplicate json name " + d.jsonName)
		}
		catalog[d.field] = d
		byColumn[d.column] = d.field
		byJSON[d.jsonName] = d.field
		byName[strings.ToLower(d.name)] = d.field
		ordered = append(ordered, d.field)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
}

// Fields returns every catalog field in id order.
func Fields() []Field {
	out := make([]Field, len(ordered))
	copy(out, ordered)
	return out
}

// FieldByID returns the field with the given protocol id.
func FieldByID(id int) (Field, bool) {
	_, ok := catalog[Field(id)]
	return Field(id), ok
}

// FieldByColumn returns the field stored in the given column.
func FieldByColumn(column string) (Field, bool) {
	f, ok := byColumn[column]
	return f, ok
}

// FieldByJSONName returns the field with the given JSON name.
func FieldByJSONName(name string) (Field, bool) {
	f, ok := byJSON[name]
	return f, ok
}

// ParseField resolves s as a numeric id, JSON name, column or Go field name,
// in that order.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		if f, ok := FieldByID(id); ok {
			return f, nil
		}
	}
	if f, ok := byJSON[s]; ok {
		return f, nil
	}
	if f, ok := byColumn[s]; ok {
		return f, nil
	}
	if f, ok := byName[strings.ToLower(s)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) def() (*fieldDef, error) {
	d, ok := catalog[f]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return d, nil
}

// Valid reports whether f is part of the catalog.
func (f Field) Valid() bool {
	_, ok := catalog[f]
	return ok
}

// ID returns the protocol id.
func (f Field) ID() int { return int(f) }

// Column returns the storage column name.
func (f Field) Column() string {
	if d, ok := catalog[f]; ok {
		return d.column
	}
	return ""
}

// DisplayName returns the i18n key of the human readable field name.
func (f Field) DisplayName() string {
	if d, ok := catalog[f]; ok {
		return d.label
	}
	return ""
}

// JSONName returns the field name used on the JSON wire format.
func (f Field) JSONName() string {
	if d, ok := catalog[f]; ok {
		return d.jsonName
	}
	return ""
}

// Kind returns the value kind.
func (f Field) Kind() Kind {
	if d, ok := catalog[f]; ok {
		return d.kind
	}
	return 0
}

// MaxLength returns the maximum length in characters for string fields, 0 if
// unbounded.
func (f Field) MaxLength() int {
	if d, ok := catalog[f]; ok {
		return d.maxLen
	}
	return 0
}

func (f Field) String() string {
	if d, ok := catalog[f]; ok {
		return d.name
	}
	return "Field(" + strconv.Itoa(int(f)) + ")"
}

// Switch dispatches to the switcher's operation for this field.
func (f Field) Switch(sw Switcher, c *Contact, value any) (any, error) {
	if !f.Valid() {
		return nil, &FieldError{Field: f, Op: "switch", Err: ErrUnknownField}
	}
	if c == nil {
		return nil, &FieldError{Field: f, Op: "switch", Err: ErrInvalidValue}
	}
	return sw.Switch(f, c, value)
}

// IsEmail reports whether the field holds an e-mail address.
func (f Field) IsEmail() bool {
	return f == FieldEmail1 || f == FieldEmail2 || f == FieldEmail3
}

// identityFields are maintained by storage and never merged or validated as
// user input.
var identityFields = map[Field]bool{
	FieldObjectID:     true,
	FieldFolderID:     true,
	FieldCreatedBy:    true,
	FieldModifiedBy:   true,
	FieldCreationDate: true,
	FieldLastModified: true,
	FieldUID:          true,
	FieldUseCount:     true,
}

// IsIdentity reports whether the field is maintained by storage.
func (f Field) IsIdentity() bool {
	return identityFields[f]
}
