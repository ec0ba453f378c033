package contact

import (
	"slices"
	"time"
)

// Contact is an address-book record for a person, an organisation or a
// distribution list.
//
// Generic code should not touch the struct fields directly; it reads and
// writes them through a Field and a Switcher so that one code path covers
// every attribute.
type Contact struct {
	ID           string
	FolderID     string
	CreatedBy    string
	ModifiedBy   string
	CreationDate time.Time
	LastModified time.Time
	UID          string
	Filename     string

	Categories          string
	PrivateFlag         bool
	ColorLabel          int
	NumberOfAttachments int

	DisplayName   string
	GivenName     string
	SurName       string
	MiddleName    string
	Suffix        string
	Title         string
	Nickname      string
	FileAs        string
	YomiFirstName string
	YomiLastName  string
	YomiCompany   string

	StreetHome     string
	PostalCodeHome string
	CityHome       string
	StateHome      string
	CountryHome    string

	StreetBusiness     string
	PostalCodeBusiness string
	CityBusiness       string
	StateBusiness      string
	CountryBusiness    string

	StreetOther     string
	PostalCodeOther string
	CityOther       string
	StateOther      string
	CountryOther    string

	Birthday         time.Time
	Anniversary      time.Time
	MaritalStatus    string
	NumberOfChildren string
	SpouseName       string
	Profession       string
	Note             string

	Company            string
	Department         string
	Position           string
	EmployeeType       string
	RoomNumber         string
	NumberOfEmployees  string
	SalesVolume        string
	TaxID              string
	CommercialRegister string
	Branches           string
	BusinessCategory   string
	Info               string
	ManagerName        string
	AssistantName      string

	TelephoneBusiness1 string
	TelephoneBusiness2 string
	FaxBusiness        string
	TelephoneCallback  string
	TelephoneCar       string
	TelephoneCompany   string
	TelephoneHome1     string
	TelephoneHome2     string
	FaxHome            string
	CellularTelephone1 string
	CellularTelephone2 string
	TelephoneOther     string
	FaxOther           string
	TelephoneISDN      string
	TelephonePager     string
	TelephonePrimary   string
	TelephoneRadio     string
	TelephoneTelex     string
	TelephoneTTYTDD    string
	TelephoneIP        string
	TelephoneAssistant string

	Email1            string
	Email2            string
	Email3            string
	URL               string
	InstantMessenger1 string
	InstantMessenger2 string

	// UserFields holds the twenty free-form user fields, UserField01 at index 0.
	UserFields [20]string

	Image1            []byte
	ImageContentType  string
	ImageLastModified time.Time
	ImageURL          string

	DistributionList       []DistributionListEntry
	MarkAsDistributionList bool
	Links                  []Link

	// DefaultAddress selects the preferred e-mail (1-3); 0 means unset.
	DefaultAddress int
	InternalUserID int
	UseCount       int
}

// DistributionListEntry is one member of a distribution list. A member either
// references another contact (ContactID/FolderID plus which of its e-mail
// fields to use) or is a one-off address.
type DistributionListEntry struct {
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"mail,omitempty"`
	EmailField  int    `json:"mail_field,omitempty"`
	ContactID   string `json:"id,omitempty"`
	FolderID    string `json:"folder_id,omitempty"`
}

// Link associates the contact with another contact.
type Link struct {
	ContactID   string `json:"id"`
	FolderID    string `json:"folder_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Clone returns a deep copy of the contact.
func (c *Contact) Clone() *Contact {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Image1 = slices.Clone(c.Image1)
	cp.DistributionList = slices.Clone(c.DistributionList)
	cp.Links = slices.Clone(c.Links)
	return &cp
}

// Emails returns the non-empty e-mail addresses in field order.
func (c *Contact) Emails() []string {
	out := make([]string, 0, 3)
	for _, e := range []string{c.Email1, c.Email2, c.Email3} {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// PreferredEmail returns the address chosen by DefaultAddress, falling back to
// the first non-empty address.
func (c *Contact) PreferredEmail() string {
	switch c.DefaultAddress {
	case 1:
		if c.Email1 != "" {
			return c.Email1
		}
	case 2:
		if c.Email2 != "" {
			return c.Email2
		}
	case 3:
		if c.Email3 != "" {
			return c.Email3
		}
	}
	if emails := c.Emails(); len(emails) > 0 {
		return emails[0]
	}
	return ""
}

// IsDistributionList reports whether the record is a distribution list.
func (c *Contact) IsDistributionList() bool {
	return c.MarkAsDistributionList || len(c.DistributionList) > 0
}
