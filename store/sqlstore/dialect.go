package sqlstore

import "github.com/rbaliyan/groupware/contact"

// Dialect describes what differs between the SQL databases the store runs
// on. Queries are written with '?' placeholders and rebound through sqlx
// for the driver in use, so dialects only supply column types and error
// classification.
type Dialect struct {
	// Name is used in log and error messages.
	Name string

	Text    string
	Integer string
	BigInt  string
	Bool    string
	Bytes   string
	JSON    string

	// IsUniqueViolation reports whether err is a unique or primary key
	// constraint violation.
	IsUniqueViolation func(err error) bool
}

// columnType returns the declaration of the column for a field kind.
// Scalar kinds are NOT NULL with a zero default; dates, times, bytes and
// lists are nullable and NULL when unset.
func (d Dialect) columnType(k contact.Kind) string {
	switch k {
	case contact.KindString:
		return d.Text + " NOT NULL DEFAULT ''"
	case contact.KindInt:
		return d.Integer + " NOT NULL DEFAULT 0"
	case contact.KindBool:
		return d.Bool + " NOT NULL DEFAULT FALSE"
	case contact.KindDate, contact.KindTime:
		// unix milliseconds
		return d.BigInt
	case contact.KindBytes:
		return d.Bytes
	default:
		return d.JSON
	}
}

func (d Dialect) isUnique(err error) bool {
	return err != nil && d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}
