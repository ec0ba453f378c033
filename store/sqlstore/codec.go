package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rbaliyan/groupware/contact"
)

// sortKeyColumn holds the lower-cased contact.SortKey used for the default
// ordering. It is derived on every write and not part of the catalog.
const sortKeyColumn = "sort_key"

func quote(name string) string {
	return `"` + name + `"`
}

// encodeValue converts a field value into its column value.
func encodeValue(f contact.Field, v any) (any, error) {
	switch x := v.(type) {
	case string, bool:
		return x, nil
	case int:
		return int64(x), nil
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return x.UnixMilli(), nil
	case []byte:
		if len(x) == 0 {
			return nil, nil
		}
		return x, nil
	case []contact.DistributionListEntry:
		if len(x) == 0 {
			return nil, nil
		}
		return marshalJSON(f, x)
	case []contact.Link:
		if len(x) == 0 {
			return nil, nil
		}
		return marshalJSON(f, x)
	}
	return nil, fmt.Errorf("encode %s: unsupported value %T", f, v)
}

func marshalJSON(f contact.Field, v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return string(b), nil
}

// encodeContact returns the column values of c for fields, followed by the
// sort key.
func encodeContact(c *contact.Contact, fields []contact.Field) ([]any, error) {
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		v, err := contact.Get(c, f)
		if err != nil {
			return nil, err
		}
		col, err := encodeValue(f, v)
		if err != nil {
			return nil, err
		}
		args = append(args, col)
	}
	return append(args, strings.ToLower(contact.SortKey(c))), nil
}

// scanTargets returns one destination per field for rows.Scan.
func scanTargets(fields []contact.Field) []any {
	dest := make([]any, len(fields))
	for i, f := range fields {
		switch f.Kind() {
		case contact.KindString:
			dest[i] = new(string)
		case contact.KindInt:
			dest[i] = new(int64)
		case contact.KindBool:
			dest[i] = new(bool)
		case contact.KindDate, contact.KindTime:
			dest[i] = new(sql.NullInt64)
		case contact.KindBytes:
			dest[i] = new([]byte)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	return dest
}

// decodeContact builds a contact from scanned destinations.
func decodeContact(fields []contact.Field, dest []any) (*contact.Contact, error) {
	c := &contact.Contact{}
	for i, f := range fields {
		var v any
		switch p := dest[i].(type) {
		case *string:
			v = *p
		case *int64:
			v = int(*p)
		case *bool:
			v = *p
		case *sql.NullInt64:
			if p.Valid {
				v = time.UnixMilli(p.Int64).UTC()
			}
		case *[]byte:
			if len(*p) > 0 {
				v = *p
			}
		case *sql.NullString:
			if !p.Valid || p.String == "" {
				break
			}
			var err error
			if v, err = unmarshalList(f, p.String); err != nil {
				return nil, err
			}
		}
		if err := contact.Set(c, f, v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func unmarshalList(f contact.Field, s string) (any, error) {
	switch f.Kind() {
	case contact.KindDistributionList:
		var out []contact.DistributionListEntry
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		return out, nil
	case contact.KindLinks:
		var out []contact.Link
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("decode %s: not a list field", f)
}
