package contact

import (
	"bytes"
	"encoding/base64"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Switcher performs one operation on any catalog field. Implementations
// are stateless and safe for concurrent use unless documented otherwise.
type Switcher interface {
	Switch(f Field, c *Contact, value any) (any, error)
}

// SwitcherFunc adapts a function to the Switcher interface.
type SwitcherFunc func(f Field, c *Contact, value any) (any, error)

// Switch calls fn(f, c, value).
func (fn SwitcherFunc) Switch(f Field, c *Contact, value any) (any, error) {
	return fn(f, c, value)
}

// Getter returns the typed value of a field. The value argument is ignored.
//
// Values by kind: string, int, bool, time.Time (date and time),
// []byte, []DistributionListEntry and []Link. Slices are copies.
type Getter struct{}

// Setter assigns value to a field and returns the previous value. A nil
// value clears the field.
type Setter struct{}

// Stringer renders the field value as text. It reads through Getter.
type Stringer struct{}

// Date layout used for KindDate values.
const DateLayout = "2006-01-02"

var (
	_ Switcher = Getter{}
	_ Switcher = Setter{}
	_ Switcher = Stringer{}
)

// Switch implements Switcher.
func (Getter) Switch(f Field, c *Contact, _ any) (any, error) {
	d, err := f.def()
	if err != nil {
		return nil, &FieldError{Field: f, Op: "get", Err: err}
	}
	return load(d.ref(c)), nil
}

// Switch implements Switcher.
func (Setter) Switch(f Field, c *Contact, value any) (any, error) {
	d, err := f.def()
	if err != nil {
		return nil, &FieldError{Field: f, Op: "set", Err: err}
	}
	ref := d.ref(c)
	prev := load(ref)
	if value == nil {
		reset(ref)
		return prev, nil
	}
	if !assign(ref, d.kind, value) {
		return nil, &FieldError{Field: f, Op: "set", Err: ErrWrongType}
	}
	return prev, nil
}

// Switch implements Switcher.
func (Stringer) Switch(f Field, c *Contact, value any) (any, error) {
	v, err := Getter{}.Switch(f, c, value)
	if err != nil {
		return nil, err
	}
	return formatValue(f.Kind(), v), nil
}

// Get is shorthand for Getter{}.Switch.
func Get(c *Contact, f Field) (any, error) {
	return f.Switch(Getter{}, c, nil)
}

// Set is shorthand for Setter{}.Switch, discarding the previous value.
func Set(c *Contact, f Field, value any) error {
	_, err := f.Switch(Setter{}, c, value)
	return err
}

// String returns the text form of a field, or "" for unknown fields.
func String(c *Contact, f Field) string {
	v, err := f.Switch(Stringer{}, c, nil)
	if err != nil {
		return ""
	}
	return v.(string)
}

// Contains reports whether the field holds a non-zero value.
func Contains(c *Contact, f Field) bool {
	if c == nil {
		return false
	}
	d, err := f.def()
	if err != nil {
		return false
	}
	return !isZero(d.ref(c))
}

func load(ref any) any {
	switch p := ref.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *bool:
		return *p
	case *time.Time:
		return *p
	case *[]byte:
		return bytes.Clone(*p)
	case *[]DistributionListEntry:
		return slices.Clone(*p)
	case *[]Link:
		return slices.Clone(*p)
	}
	return nil
}

func reset(ref any) {
	switch p := ref.(type) {
	case *string:
		*p = ""
	case *int:
		*p = 0
	case *bool:
		*p = false
	case *time.Time:
		*p = time.Time{}
	case *[]byte:
		*p = nil
	case *[]DistributionListEntry:
		*p = nil
	case *[]Link:
		*p = nil
	}
}

func assign(ref any, kind Kind, value any) bool {
	switch p := ref.(type) {
	case *string:
		v, ok := value.(string)
		if ok {
			*p = v
		}
		return ok
	case *int:
		v, ok := value.(int)
		if ok {
			*p = v
		}
		return ok
	case *bool:
		v, ok := value.(bool)
		if ok {
			*p = v
		}
		return ok
	case *time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return false
		}
		if kind == KindDate && !v.IsZero() {
			v = truncateDate(v)
		}
		*p = v
		return true
	case *[]byte:
		v, ok := value.([]byte)
		if ok {
			*p = bytes.Clone(v)
		}
		return ok
	case *[]DistributionListEntry:
		v, ok := value.([]DistributionListEntry)
		if ok {
			*p = slices.Clone(v)
		}
		return ok
	case *[]Link:
		v, ok := value.([]Link)
		if ok {
			*p = slices.Clone(v)
		}
		return ok
	}
	return false
}

func isZero(ref any) bool {
	switch p := ref.(type) {
	case *string:
		return *p == ""
	case *int:
		return *p == 0
	case *bool:
		return !*p
	case *time.Time:
		return p.IsZero()
	case *[]byte:
		return len(*p) == 0
	case *[]DistributionListEntry:
		return len(*p) == 0
	case *[]Link:
		return len(*p) == 0
	}
	return true
}

// truncateDate keeps the calendar date of t as UTC midnight.
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatValue(kind Kind, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if kind == KindDate {
			return x.UTC().Format(DateLayout)
		}
		return x.UTC().Format(time.RFC3339)
	case []byte:
		if len(x) == 0 {
			return ""
		}
		return base64.StdEncoding.EncodeToString(x)
	case []DistributionListEntry:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, formatAddress(e.DisplayName, e.Email))
		}
		return strings.Join(parts, ", ")
	case []Link:
		parts := make([]string, 0, len(x))
		for _, l := range x {
			if l.DisplayName != "" {
				parts = append(parts, l.DisplayName)
			} else {
				parts = append(parts, l.ContactID)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func formatAddress(name, email string) string {
	switch {
	case name == "":
		return email
	case email == "":
		return name
	default:
		return name + " <" + email + ">"
	}
}

// equalValues compares two values returned by Getter.
func equalValues(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return x == y
	case int:
		y, _ := b.(int)
		return x == y
	case bool:
		y, _ := b.(bool)
		return x == y
	case time.Time:
		y, _ := b.(time.Time)
		return x.Equal(y)
	case []byte:
		y, _ := b.([]byte)
		return bytes.Equal(x, y)
	case []DistributionListEntry:
		y, _ := b.([]DistributionListEntry)
		return slices.Equal(x, y)
	case []Link:
		y, _ := b.([]Link)
		return slices.Equal(x, y)
	}
	return a == nil && b == nil
}
