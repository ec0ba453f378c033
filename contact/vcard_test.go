package contact

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/google/go-cmp/cmp"
)

func TestToVCard(t *testing.T) {
	c := &Contact{
		ID:                 "42",
		GivenName:          "Ann",
		SurName:            "Smith",
		Company:            "Acme",
		Department:         "Sales",
		Email1:             "ann@acme.example",
		Email2:             "ann@home.example",
		DefaultAddress:     2,
		CellularTelephone1: "+1 555 0100",
		CityHome:           "Springfield",
		Birthday:           time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	card := ToVCard(c)

	if got := card.Value(vcard.FieldVersion); got != "4.0" {
		t.Errorf("expected version 4.0, got %q", got)
	}
	if got := card.Value(vcard.FieldUID); got != "42" {
		t.Errorf("expected uid from id, got %q", got)
	}
	if got := card.Value(vcard.FieldFormattedName); got != "Ann Smith" {
		t.Errorf("expected computed FN, got %q", got)
	}
	if got := card.Value(vcard.FieldBirthday); got != "19800115" {
		t.Errorf("unexpected BDAY %q", got)
	}
	if got := card.Value(vcard.FieldOrganization); got != "Acme;Sales" {
		t.Errorf("unexpected ORG %q", got)
	}
	emails := card[vcard.FieldEmail]
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(emails))
	}
	if emails[1].Params.Get(vcard.ParamPreferred) != "1" {
		t.Error("expected second address preferred")
	}
	tel := card.Get(vcard.FieldTelephone)
	if tel == nil || tel.Value != "+1 555 0100" || tel.Params.Get(vcard.ParamType) != vcard.TypeCell {
		t.Errorf("unexpected TEL %+v", tel)
	}
	if addrs := card.Addresses(); len(addrs) != 1 || addrs[0].Locality != "Springfield" {
		t.Errorf("unexpected addresses %+v", addrs)
	}
}

func TestVCardRoundTrip(t *testing.T) {
	in := &Contact{
		UID:                "uid-1",
		DisplayName:        "Dr. Ann Smith",
		GivenName:          "Ann",
		SurName:            "Smith",
		MiddleName:         "B",
		Title:              "Dr.",
		Nickname:           "Annie",
		Birthday:           time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC),
		StreetBusiness:     "1 Main St",
		CityBusiness:       "Springfield",
		PostalCodeBusiness: "12345",
		CountryBusiness:    "US",
		TelephoneBusiness1: "+1 555 0100",
		TelephoneBusiness2: "+1 555 0101",
		FaxHome:            "+1 555 0102",
		CellularTelephone1: "+1 555 0103",
		TelephonePager:     "+1 555 0104",
		Email1:             "ann@acme.example",
		Email2:             "ann@home.example",
		DefaultAddress:     2,
		Company:            "Acme",
		Position:           "Engineer",
		URL:                "https://acme.example",
		Categories:         "work,friends",
		LastModified:       time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := EncodeVCards(&buf, []*Contact{in}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeVCards(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(out))
	}
	if diff := cmp.Diff(in, out[0]); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestDecodeVCardsV3(t *testing.T) {
	const data = "BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"FN:Bob Jones\r\n" +
		"N:Jones;Bob;;;\r\n" +
		"EMAIL;TYPE=INTERNET:bob@example.com\r\n" +
		"TEL;TYPE=CELL:+1 555 0199\r\n" +
		"TEL;TYPE=HOME:+1 555 0198\r\n" +
		"BDAY:1975-03-02\r\n" +
		"END:VCARD\r\n" +
		"BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"FN:Broken\r\n" +
		"EMAIL:not an address\r\n" +
		"END:VCARD\r\n"

	cs, err := DecodeVCards(strings.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "card 1") {
		t.Errorf("expected error for card 1, got %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(cs))
	}
	c := cs[0]
	want := &Contact{
		DisplayName:        "Bob Jones",
		GivenName:          "Bob",
		SurName:            "Jones",
		Email1:             "bob@example.com",
		CellularTelephone1: "+1 555 0199",
		TelephoneHome1:     "+1 555 0198",
		Birthday:           time.Date(1975, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestVCardDistributionList(t *testing.T) {
	in := &Contact{
		DisplayName:            "Team",
		MarkAsDistributionList: true,
		DistributionList: []DistributionListEntry{
			{DisplayName: "Ann", Email: "ann@example.com"},
			{Email: "bob@example.com"},
		},
	}
	out, err := FromVCard(ToVCard(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.MarkAsDistributionList {
		t.Error("expected distribution list")
	}
	if diff := cmp.Diff(in.DistributionList, out.DistributionList); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
}

func TestParseDataURI(t *testing.T) {
	ct, data, ok := parseDataURI("data:image/png;base64,AQID")
	if !ok || ct != "image/png" || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("got %q %v %v", ct, data, ok)
	}
	if _, _, ok := parseDataURI("https://example.com/a.png"); ok {
		t.Error("expected non data URI rejected")
	}
}
