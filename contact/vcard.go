package contact

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/emersion/go-vcard"
)

const vcardDateLayout = "20060102"

// phoneSlot maps a telephone field to the TYPE parameters it is exported
// with. Import assigns a TEL property to the first free slot with the same
// type set; "voice" and "pref" are ignored when matching.
type phoneSlot struct {
	field Field
	types []string
}

var phoneSlots = []phoneSlot{
	{FieldTelephoneBusiness1, []string{vcard.TypeWork, vcard.TypeVoice}},
	{FieldTelephoneBusiness2, []string{vcard.TypeWork, vcard.TypeVoice}},
	{FieldFaxBusiness, []string{vcard.TypeWork, vcard.TypeFax}},
	{FieldTelephoneHome1, []string{vcard.TypeHome, vcard.TypeVoice}},
	{FieldTelephoneHome2, []string{vcard.TypeHome, vcard.TypeVoice}},
	{FieldFaxHome, []string{vcard.TypeHome, vcard.TypeFax}},
	{FieldCellularTelephone1, []string{vcard.TypeCell}},
	{FieldCellularTelephone2, []string{vcard.TypeCell}},
	{FieldTelephonePager, []string{vcard.TypePager}},
	{FieldTelephoneTTYTDD, []string{vcard.TypeTextPhone}},
	{FieldTelephoneCallback, []string{"x-callback"}},
	{FieldTelephoneCar, []string{"x-car"}},
	{FieldTelephoneCompany, []string{"x-company"}},
	{FieldTelephoneISDN, []string{"x-isdn"}},
	{FieldTelephonePrimary, []string{"x-primary"}},
	{FieldTelephoneRadio, []string{"x-radio"}},
	{FieldTelephoneTelex, []string{"x-telex"}},
	{FieldTelephoneIP, []string{"x-ip"}},
	{FieldTelephoneAssistant, []string{"x-assistant"}},
	{FieldTelephoneOther, []string{vcard.TypeVoice}},
	{FieldFaxOther, []string{vcard.TypeFax}},
}

// emailTypes are the TYPE parameters of Email1-3.
var emailTypes = [3]string{vcard.TypeWork, vcard.TypeHome, "other"}

type addressFields struct {
	typ                                      string
	street, postalCode, city, state, country Field
}

var addressSlots = []addressFields{
	{vcard.TypeHome, FieldStreetHome, FieldPostalCodeHome, FieldCityHome, FieldStateHome, FieldCountryHome},
	{vcard.TypeWork, FieldStreetBusiness, FieldPostalCodeBusiness, FieldCityBusiness, FieldStateBusiness, FieldCountryBusiness},
	{"other", FieldStreetOther, FieldPostalCodeOther, FieldCityOther, FieldStateOther, FieldCountryOther},
}

// ToVCard converts c to a vCard 4.0 card.
func ToVCard(c *Contact) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldVersion, "4.0")

	uid := c.UID
	if uid == "" {
		uid = c.ID
	}
	if uid != "" {
		card.SetValue(vcard.FieldUID, uid)
	}
	card.SetValue(vcard.FieldFormattedName, DisplayNameOf(c))
	card.SetName(&vcard.Name{
		FamilyName:      c.SurName,
		GivenName:       c.GivenName,
		AdditionalName:  c.MiddleName,
		HonorificPrefix: c.Title,
		HonorificSuffix: c.Suffix,
	})
	addValue(card, vcard.FieldNickname, c.Nickname)
	if !c.Birthday.IsZero() {
		card.SetValue(vcard.FieldBirthday, c.Birthday.UTC().Format(vcardDateLayout))
	}
	if !c.Anniversary.IsZero() {
		card.SetValue(vcard.FieldAnniversary, c.Anniversary.UTC().Format(vcardDateLayout))
	}

	for _, slot := range addressSlots {
		addr := &vcard.Address{
			Field:         &vcard.Field{Params: vcard.Params{vcard.ParamType: {slot.typ}}},
			StreetAddress: String(c, slot.street),
			PostalCode:    String(c, slot.postalCode),
			Locality:      String(c, slot.city),
			Region:        String(c, slot.state),
			Country:       String(c, slot.country),
		}
		if addr.StreetAddress+addr.PostalCode+addr.Locality+addr.Region+addr.Country != "" {
			card.AddAddress(addr)
		}
	}

	for _, slot := range phoneSlots {
		if v := String(c, slot.field); v != "" {
			card.Add(vcard.FieldTelephone, &vcard.Field{
				Value:  v,
				Params: vcard.Params{vcard.ParamType: slices.Clone(slot.types)},
			})
		}
	}

	for i, addr := range []string{c.Email1, c.Email2, c.Email3} {
		if addr == "" {
			continue
		}
		params := vcard.Params{vcard.ParamType: {emailTypes[i]}}
		if c.DefaultAddress == i+1 {
			params.Set(vcard.ParamPreferred, "1")
		}
		card.Add(vcard.FieldEmail, &vcard.Field{Value: addr, Params: params})
	}
	addValue(card, vcard.FieldIMPP, c.InstantMessenger1)
	addValue(card, vcard.FieldIMPP, c.InstantMessenger2)

	if c.Company != "" || c.Department != "" {
		org := c.Company
		if c.Department != "" {
			org += ";" + c.Department
		}
		card.SetValue(vcard.FieldOrganization, org)
	}
	addValue(card, vcard.FieldTitle, c.Position)
	addValue(card, vcard.FieldRole, c.Profession)
	addValue(card, vcard.FieldNote, c.Note)
	addValue(card, vcard.FieldURL, c.URL)
	if cats := splitCategories(c.Categories); len(cats) > 0 {
		card.SetCategories(cats)
	}
	if !c.LastModified.IsZero() {
		card.SetRevision(c.LastModified)
	}

	switch {
	case len(c.Image1) > 0:
		ct := c.ImageContentType
		if ct == "" {
			ct = "image/jpeg"
		}
		card.SetValue(vcard.FieldPhoto, "data:"+ct+";base64,"+base64.StdEncoding.EncodeToString(c.Image1))
	case c.ImageURL != "":
		card.SetValue(vcard.FieldPhoto, c.ImageURL)
	}

	if c.IsDistributionList() {
		card.SetKind(vcard.KindGroup)
		for _, m := range c.DistributionList {
			if m.Email == "" {
				continue
			}
			f := &vcard.Field{Value: "mailto:" + m.Email}
			if m.DisplayName != "" {
				f.Params = vcard.Params{"X-CN": {m.DisplayName}}
			}
			card.Add(vcard.FieldMember, f)
		}
	}
	return card
}

func addValue(card vcard.Card, key, value string) {
	if value != "" {
		card.Add(key, &vcard.Field{Value: value})
	}
}

func splitCategories(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FromVCard converts a vCard of version 3.0 or 4.0 to a contact. Values go
// through Coercer and Validator, so a card with an invalid e-mail address or
// an oversized value is rejected.
func FromVCard(card vcard.Card) (*Contact, error) {
	c := &Contact{}
	sw := Chain(Setter{}, Coercing(), Validating(0))
	var errs []error
	set := func(f Field, v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, err := f.Switch(sw, c, v); err != nil {
			errs = append(errs, err)
		}
	}

	set(FieldUID, card.Value(vcard.FieldUID))
	set(FieldDisplayName, card.PreferredValue(vcard.FieldFormattedName))
	if n := card.Name(); n != nil {
		set(FieldSurName, n.FamilyName)
		set(FieldGivenName, n.GivenName)
		set(FieldMiddleName, n.AdditionalName)
		set(FieldTitle, n.HonorificPrefix)
		set(FieldSuffix, n.HonorificSuffix)
	}
	set(FieldNickname, card.Value(vcard.FieldNickname))
	set(FieldBirthday, card.Value(vcard.FieldBirthday))
	set(FieldAnniversary, card.Value(vcard.FieldAnniversary))

	used := map[string]bool{}
	for _, addr := range card.Addresses() {
		slot := addressSlots[2]
		if addr.Field != nil {
			switch {
			case hasType(addr.Params, vcard.TypeHome):
				slot = addressSlots[0]
			case hasType(addr.Params, vcard.TypeWork):
				slot = addressSlots[1]
			}
		}
		if used[slot.typ] {
			continue
		}
		used[slot.typ] = true
		set(slot.street, addr.StreetAddress)
		set(slot.postalCode, addr.PostalCode)
		set(slot.city, addr.Locality)
		set(slot.state, addr.Region)
		set(slot.country, addr.Country)
	}

	for _, tel := range card[vcard.FieldTelephone] {
		if f, ok := phoneFieldFor(c, tel.Params); ok {
			set(f, tel.Value)
		}
	}

	emails := card[vcard.FieldEmail]
	for i, e := range emails {
		if i >= 3 {
			break
		}
		f := []Field{FieldEmail1, FieldEmail2, FieldEmail3}[i]
		set(f, e.Value)
		if pref := e.Params.Get(vcard.ParamPreferred); pref != "" && pref != "0" {
			c.DefaultAddress = i + 1
		}
	}
	if impp := card.Values(vcard.FieldIMPP); len(impp) > 0 {
		set(FieldInstantMessenger1, impp[0])
		if len(impp) > 1 {
			set(FieldInstantMessenger2, impp[1])
		}
	}

	if org := card.Value(vcard.FieldOrganization); org != "" {
		company, dept, _ := strings.Cut(org, ";")
		set(FieldCompany, company)
		set(FieldDepartment, dept)
	}
	set(FieldPosition, card.Value(vcard.FieldTitle))
	set(FieldProfession, card.Value(vcard.FieldRole))
	set(FieldNote, card.Value(vcard.FieldNote))
	set(FieldURL, card.Value(vcard.FieldURL))
	if cats := card.Categories(); len(cats) > 0 {
		set(FieldCategories, strings.Join(cats, ","))
	}
	if rev, err := card.Revision(); err == nil && !rev.IsZero() {
		c.LastModified = rev
	}

	if photo := card.Value(vcard.FieldPhoto); photo != "" {
		if ct, data, ok := parseDataURI(photo); ok {
			if _, err := FieldImage1.Switch(sw, c, data); err != nil {
				errs = append(errs, err)
			}
			set(FieldImageContentType, ct)
		} else {
			set(FieldImageURL, photo)
		}
	}

	if card.Kind() == vcard.KindGroup {
		c.MarkAsDistributionList = true
		var members []DistributionListEntry
		for _, m := range card[vcard.FieldMember] {
			addr, ok := strings.CutPrefix(m.Value, "mailto:")
			if !ok {
				continue
			}
			members = append(members, DistributionListEntry{
				DisplayName: m.Params.Get("X-CN"),
				Email:       addr,
			})
		}
		if len(members) > 0 {
			if _, err := FieldDistributionList.Switch(sw, c, members); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func phoneFieldFor(c *Contact, params vcard.Params) (Field, bool) {
	key := typeKey(params[vcard.ParamType])
	for _, slot := range phoneSlots {
		if typeKey(slot.types) == key && !Contains(c, slot.field) {
			return slot.field, true
		}
	}
	if !Contains(c, FieldTelephoneOther) {
		return FieldTelephoneOther, true
	}
	return 0, false
}

func hasType(params vcard.Params, typ string) bool {
	for _, list := range params[vcard.ParamType] {
		for _, t := range strings.Split(list, ",") {
			if strings.EqualFold(strings.TrimSpace(t), typ) {
				return true
			}
		}
	}
	return false
}

func typeKey(types []string) string {
	var out []string
	for _, list := range types {
		for _, t := range strings.Split(list, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || t == vcard.TypeVoice || t == "pref" {
				continue
			}
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return strings.Join(out, ",")
}

// parseDataURI decodes a base64 data URI.
func parseDataURI(s string) (contentType string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	ct, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return ct, data, true
}

// EncodeVCards writes the contacts as a stream of vCards.
func EncodeVCards(w io.Writer, cs []*Contact) error {
	enc := vcard.NewEncoder(w)
	for i, c := range cs {
		if err := enc.Encode(ToVCard(c)); err != nil {
			return fmt.Errorf("contact: encode card %d: %w", i, err)
		}
	}
	return nil
}

// DecodeVCards reads every card from r. Cards that fail conversion are
// reported together with their position; the rest are returned.
func DecodeVCards(r io.Reader) ([]*Contact, error) {
	dec := vcard.NewDecoder(r)
	var out []*Contact
	var errs []error
	for i := 0; ; i++ {
		card, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("contact: decode card %d: %w", i, err)
		}
		c, err := FromVCard(card)
		if err != nil {
			errs = append(errs, fmt.Errorf("card %d: %w", i, err))
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}
