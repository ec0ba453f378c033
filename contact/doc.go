// Package contact defines the Contact business object, its field catalog
// and the switchers that read and write fields generically.
//
// Every attribute of a Contact is described by a Field: a stable protocol
// id, a storage column, an i18n label key, a JSON name and a Kind. Generic
// code never touches struct members directly; it passes a Field and a
// Switcher instead:
//
//	v, err := contact.FieldGivenName.Switch(contact.Getter{}, c, nil)
//
//	// coerce "1980-01-15" to a date, check limits, then set
//	sw := contact.Chain(contact.Setter{}, contact.Coercing(), contact.Validating(0))
//	_, err = contact.FieldBirthday.Switch(sw, c, "1980-01-15")
//
// The package also carries the similarity heuristic used for duplicate
// detection, field-wise merge and diff, locale-aware comparators and vCard
// conversion.
package contact
