package contact

import "strings"

// DisplayNameOf returns the display name of c, computing one when none is
// set: "given-name surname", then company, then the preferred e-mail.
func DisplayNameOf(c *Contact) string {
	if c == nil {
		return ""
	}
	if s := strings.TrimSpace(c.DisplayName); s != "" {
		return s
	}
	name := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.SurName))
	if name != "" {
		return name
	}
	if s := strings.TrimSpace(c.Company); s != "" {
		return s
	}
	return c.PreferredEmail()
}

// FileAsOf returns the "file as" name: "surname, given-name" for people,
// falling back to DisplayNameOf.
func FileAsOf(c *Contact) string {
	if c == nil {
		return ""
	}
	if s := strings.TrimSpace(c.FileAs); s != "" {
		return s
	}
	sur, given := strings.TrimSpace(c.SurName), strings.TrimSpace(c.GivenName)
	switch {
	case sur != "" && given != "":
		return sur + ", " + given
	case sur != "":
		return sur
	}
	return DisplayNameOf(c)
}
