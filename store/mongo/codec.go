package mongo

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/rbaliyan/groupware/contact"
)

// sortKeyField holds the lower-cased contact.SortKey.
const sortKeyField = "sort_key"

// isUnset reports whether a field value is left out of the document.
func isUnset(v any) bool {
	switch x := v.(type) {
	case time.Time:
		return x.IsZero()
	case []byte:
		return len(x) == 0
	case []contact.DistributionListEntry:
		return len(x) == 0
	case []contact.Link:
		return len(x) == 0
	}
	return false
}

// docValue converts a field value for the document. Ints are stored as
// int64 and times with millisecond precision.
func docValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case time.Time:
		return x.UTC().Truncate(time.Millisecond)
	}
	return v
}

// encodeFields splits the fields of c into set and unset document keys.
func encodeFields(c *contact.Contact, fields []contact.Field) (set, unset bson.D, err error) {
	for _, f := range fields {
		v, err := contact.Get(c, f)
		if err != nil {
			return nil, nil, err
		}
		if isUnset(v) {
			unset = append(unset, bson.E{Key: f.Column(), Value: ""})
			continue
		}
		set = append(set, bson.E{Key: f.Column(), Value: docValue(v)})
	}
	set = append(set, bson.E{Key: sortKeyField, Value: strings.ToLower(contact.SortKey(c))})
	return set, unset, nil
}

// decodeContact builds a contact from a raw document. Keys that are
// missing or null leave the field unset.
func decodeContact(raw bson.Raw, fields []contact.Field) (*contact.Contact, error) {
	c := &contact.Contact{}
	for _, f := range fields {
		rv, err := raw.LookupErr(f.Column())
		if err != nil || rv.Type == bson.TypeNull {
			continue
		}
		v, err := decodeValue(f, rv)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		if err := contact.Set(c, f, v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func decodeValue(f contact.Field, rv bson.RawValue) (any, error) {
	switch f.Kind() {
	case contact.KindString:
		var s string
		err := rv.Unmarshal(&s)
		return s, err
	case contact.KindInt:
		var n int64
		err := rv.Unmarshal(&n)
		return int(n), err
	case contact.KindBool:
		var b bool
		err := rv.Unmarshal(&b)
		return b, err
	case contact.KindDate, contact.KindTime:
		var t time.Time
		err := rv.Unmarshal(&t)
		return t.UTC(), err
	case contact.KindBytes:
		var b []byte
		err := rv.Unmarshal(&b)
		return b, err
	case contact.KindDistributionList:
		var l []contact.DistributionListEntry
		err := rv.Unmarshal(&l)
		return l, err
	case contact.KindLinks:
		var l []contact.Link
		err := rv.Unmarshal(&l)
		return l, err
	}
	return nil, fmt.Errorf("unsupported kind %s", f.Kind())
}
