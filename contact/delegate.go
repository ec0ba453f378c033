package contact

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxImageSize is the largest contact image Validator accepts.
const DefaultMaxImageSize = 4 << 20

// Decorator wraps a Switcher with cross-cutting behaviour.
type Decorator func(next Switcher) Switcher

// Chain wraps inner with the given decorators. The first decorator is the
// outermost, so Chain(Setter{}, Coercing(), Validating(0)) coerces, then
// validates, then sets.
func Chain(inner Switcher, outer ...Decorator) Switcher {
	sw := inner
	for i := len(outer) - 1; i >= 0; i-- {
		sw = outer[i](sw)
	}
	return sw
}

// Coercing returns a Decorator producing a Coercer.
func Coercing() Decorator {
	return func(next Switcher) Switcher { return Coercer{Next: next} }
}

// Validating returns a Decorator producing a Validator. maxImageSize <= 0
// selects DefaultMaxImageSize.
func Validating(maxImageSize int) Decorator {
	return func(next Switcher) Switcher {
		return Validator{Next: next, MaxImageSize: maxImageSize}
	}
}

// Coercer converts loosely typed input to the field's Kind before handing it
// to Next. Empty strings for non-string kinds become nil, which clears the
// field when Next is a Setter.
type Coercer struct {
	Next Switcher
}

// Switch implements Switcher.
func (s Coercer) Switch(f Field, c *Contact, value any) (any, error) {
	next := s.Next
	if next == nil {
		next = Setter{}
	}
	if value == nil {
		return next.Switch(f, c, nil)
	}
	v, err := Coerce(f, value)
	if err != nil {
		return nil, err
	}
	return next.Switch(f, c, v)
}

// Coerce converts value to the Go type used for f's Kind.
func Coerce(f Field, value any) (any, error) {
	kind := f.Kind()
	if kind == 0 {
		return nil, &FieldError{Field: f, Op: "coerce", Err: ErrUnknownField}
	}
	if s, ok := value.(string); ok && kind != KindString {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		value = s
	}
	v, err := coerce(kind, value)
	if err != nil {
		return nil, &FieldError{Field: f, Op: "coerce", Err: err}
	}
	return v, nil
}

func coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindString:
		switch x := value.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case fmt.Stringer:
			return x.String(), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return fmt.Sprint(x), nil
		}
	case KindInt:
		return toInt(value)
	case KindBool:
		switch x := value.(type) {
		case bool:
			return x, nil
		case string:
			switch strings.ToLower(x) {
			case "yes", "on":
				return true, nil
			case "no", "off":
				return false, nil
			}
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, x)
			}
			return b, nil
		default:
			n, err := toInt(value)
			if err != nil {
				return nil, err
			}
			return n.(int) != 0, nil
		}
	case KindDate, KindTime:
		return toTime(value)
	case KindBytes:
		switch x := value.(type) {
		case []byte:
			return x, nil
		case string:
			b, err := base64.StdEncoding.DecodeString(x)
			if err != nil {
				return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidValue, err)
			}
			return b, nil
		}
	case KindDistributionList:
		switch x := value.(type) {
		case []DistributionListEntry:
			return x, nil
		case DistributionListEntry:
			return []DistributionListEntry{x}, nil
		case string:
			var entries []DistributionListEntry
			if err := json.Unmarshal([]byte(x), &entries); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			return entries, nil
		}
	case KindLinks:
		switch x := value.(type) {
		case []Link:
			return x, nil
		case Link:
			return []Link{x}, nil
		case string:
			var links []Link
			if err := json.Unmarshal([]byte(x), &links); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			return links, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", ErrWrongType, value, kind)
}

func toInt(value any) (any, error) {
	switch x := value.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, x)
		}
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: cannot use %T as int", ErrWrongType, value)
}

// timeLayouts are tried in order when parsing date and time strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	DateLayout,
	"20060102T150405Z",
	"20060102",
	"--0102", // vCard date without year
}

func toTime(value any) (any, error) {
	switch x := value.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case int64:
		return time.UnixMilli(x).UTC(), nil
	case int:
		return time.UnixMilli(int64(x)).UTC(), nil
	case string:
		if ms, err := strconv.ParseInt(x, 10, 64); err == nil && len(x) > 8 {
			return time.UnixMilli(ms).UTC(), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidValue, x)
	}
	return nil, fmt.Errorf("%w: cannot use %T as time", ErrWrongType, value)
}

// Validator checks field limits before handing the value to Next. Values of
// the wrong type are passed through unchanged so Next can reject them.
type Validator struct {
	Next         Switcher
	MaxImageSize int
}

// Switch implements Switcher.
func (s Validator) Switch(f Field, c *Contact, value any) (any, error) {
	next := s.Next
	if next == nil {
		next = Setter{}
	}
	if value != nil {
		if err := s.check(f, value); err != nil {
			return nil, &FieldError{Field: f, Op: "validate", Err: err}
		}
	}
	return next.Switch(f, c, value)
}

// Validate reports whether value is acceptable for f.
func (s Validator) Validate(f Field, value any) error {
	if err := s.check(f, value); err != nil {
		return &FieldError{Field: f, Op: "validate", Err: err}
	}
	return nil
}

func (s Validator) check(f Field, value any) error {
	d, err := f.def()
	if err != nil {
		return err
	}
	switch x := value.(type) {
	case string:
		if d.maxLen > 0 && utf8.RuneCountInString(x) > d.maxLen {
			return fmt.Errorf("%w: %d characters, max %d", ErrTooLong, utf8.RuneCountInString(x), d.maxLen)
		}
		if !utf8.ValidString(x) {
			return fmt.Errorf("%w: invalid UTF-8", ErrInvalidValue)
		}
		if f.IsEmail() && x != "" {
			if err := checkEmail(x); err != nil {
				return err
			}
		}
		if f == FieldImageContentType && x != "" && !strings.HasPrefix(x, "image/") {
			return fmt.Errorf("%w: content type %q is not an image", ErrInvalidValue, x)
		}
	case int:
		switch f {
		case FieldColorLabel:
			if x < 0 || x > 10 {
				return fmt.Errorf("%w: color label %d out of range 0-10", ErrInvalidValue, x)
			}
		case FieldDefaultAddress:
			if x < 0 || x > 3 {
				return fmt.Errorf("%w: default address %d out of range 0-3", ErrInvalidValue, x)
			}
		default:
			if x < 0 {
				return fmt.Errorf("%w: negative value %d", ErrInvalidValue, x)
			}
		}
	case []byte:
		limit := s.MaxImageSize
		if limit <= 0 {
			limit = DefaultMaxImageSize
		}
		if len(x) > limit {
			return fmt.Errorf("%w: %d bytes, max %d", ErrTooLong, len(x), limit)
		}
	case []DistributionListEntry:
		for i, e := range x {
			if e.Email == "" && e.ContactID == "" {
				return fmt.Errorf("%w: member %d has neither address nor contact", ErrInvalidValue, i)
			}
			if e.Email != "" {
				if err := checkEmail(e.Email); err != nil {
					return err
				}
			}
			if e.EmailField < 0 || e.EmailField > 3 {
				return fmt.Errorf("%w: member %d mail field %d", ErrInvalidValue, i, e.EmailField)
			}
		}
	case []Link:
		for i, l := range x {
			if l.ContactID == "" {
				return fmt.Errorf("%w: link %d has no contact", ErrInvalidValue, i)
			}
		}
	}
	return nil
}

func checkEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not an e-mail address", ErrInvalidValue, s)
	}
	if addr.Name != "" {
		return fmt.Errorf("%w: %q must be a bare address", ErrInvalidValue, s)
	}
	return nil
}
