package contact

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSetter(t *testing.T) {
	t.Run("returns previous value", func(t *testing.T) {
		c := &Contact{GivenName: "Ann"}
		prev, err := FieldGivenName.Switch(Setter{}, c, "Anna")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prev != "Ann" || c.GivenName != "Anna" {
			t.Errorf("got prev %v, name %q", prev, c.GivenName)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		c := &Contact{}
		_, err := FieldGivenName.Switch(Setter{}, c, 5)
		if !errors.Is(err, ErrWrongType) {
			t.Fatalf("expected ErrWrongType, got %v", err)
		}
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Op != "set" {
			t.Errorf("expected set FieldError, got %v", err)
		}
	})

	t.Run("date truncated to UTC midnight", func(t *testing.T) {
		c := &Contact{}
		in := time.Date(1980, 1, 15, 13, 45, 0, 0, time.FixedZone("CET", 3600))
		if err := Set(c, FieldBirthday, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC)
		if !c.Birthday.Equal(want) {
			t.Errorf("expected %v, got %v", want, c.Birthday)
		}
	})

	t.Run("user field index", func(t *testing.T) {
		c := &Contact{}
		if err := Set(c, FieldUserField03, "three"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.UserFields[2] != "three" {
			t.Errorf("expected UserFields[2] set, got %q", c.UserFields)
		}
	})

	t.Run("slices are copied", func(t *testing.T) {
		c := &Contact{}
		img := []byte{1, 2, 3}
		if err := Set(c, FieldImage1, img); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		img[0] = 9
		if c.Image1[0] != 1 {
			t.Error("setter kept caller's slice")
		}
		got, _ := Get(c, FieldImage1)
		got.([]byte)[1] = 9
		if c.Image1[1] != 2 {
			t.Error("getter exposed internal slice")
		}
	})
}

func TestStringer(t *testing.T) {
	c := &Contact{
		Birthday:     time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC),
		LastModified: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		PrivateFlag:  true,
		ColorLabel:   4,
		Image1:       []byte{1, 2},
		DistributionList: []DistributionListEntry{
			{DisplayName: "Ann", Email: "ann@example.com"},
			{Email: "bob@example.com"},
		},
	}
	tests := []struct {
		field Field
		want  string
	}{
		{FieldBirthday, "1980-01-15"},
		{FieldLastModified, "2024-05-06T07:08:09Z"},
		{FieldPrivateFlag, "true"},
		{FieldColorLabel, "4"},
		{FieldImage1, "AQI="},
		{FieldDistributionList, "Ann <ann@example.com>, bob@example.com"},
		{FieldAnniversary, ""},
		{FieldGivenName, ""},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			if got := String(c, tt.field); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCoercer(t *testing.T) {
	date := time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		field   Field
		in      any
		want    any
		wantErr error
	}{
		{name: "iso date", field: FieldBirthday, in: "1980-01-15", want: date},
		{name: "basic date", field: FieldBirthday, in: "19800115", want: date},
		{name: "millis", field: FieldLastModified, in: int64(1000), want: time.Unix(1, 0).UTC()},
		{name: "int from string", field: FieldColorLabel, in: " 3 ", want: 3},
		{name: "int from float", field: FieldColorLabel, in: float64(4), want: 4},
		{name: "fractional float", field: FieldColorLabel, in: 1.5, wantErr: ErrInvalidValue},
		{name: "bad int", field: FieldColorLabel, in: "abc", wantErr: ErrInvalidValue},
		{name: "bool yes", field: FieldPrivateFlag, in: "yes", want: true},
		{name: "bool from int", field: FieldPrivateFlag, in: 0, want: false},
		{name: "string from int", field: FieldGivenName, in: 42, want: "42"},
		{name: "bytes from base64", field: FieldImage1, in: "AQI=", want: []byte{1, 2}},
		{name: "bad base64", field: FieldImage1, in: "!!", wantErr: ErrInvalidValue},
		{name: "links from json", field: FieldLinks, in: `[{"id":"7"}]`, want: []Link{{ContactID: "7"}}},
		{name: "unsupported", field: FieldBirthday, in: struct{}{}, wantErr: ErrWrongType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Contact{}
			_, err := tt.field.Switch(Coercer{}, c, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, _ := Get(c, tt.field)
			if !equalValues(tt.want, got) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCoercerEmptyStringClears(t *testing.T) {
	c := &Contact{ColorLabel: 5}
	if _, err := FieldColorLabel.Switch(Coercer{}, c, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ColorLabel != 0 {
		t.Errorf("expected cleared, got %d", c.ColorLabel)
	}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		in      any
		max     int
		wantErr error
	}{
		{name: "ok name", field: FieldGivenName, in: "Ann"},
		{name: "name at limit", field: FieldGivenName, in: strings.Repeat("é", FieldGivenName.MaxLength())},
		{name: "name too long", field: FieldGivenName, in: strings.Repeat("a", FieldGivenName.MaxLength()+1), wantErr: ErrTooLong},
		{name: "bare email", field: FieldEmail1, in: "ann@example.com"},
		{name: "not an email", field: FieldEmail1, in: "not an email", wantErr: ErrInvalidValue},
		{name: "named email", field: FieldEmail2, in: "Ann <ann@example.com>", wantErr: ErrInvalidValue},
		{name: "color label range", field: FieldColorLabel, in: 11, wantErr: ErrInvalidValue},
		{name: "default address range", field: FieldDefaultAddress, in: 4, wantErr: ErrInvalidValue},
		{name: "negative count", field: FieldNumberOfAttachments, in: -1, wantErr: ErrInvalidValue},
		{name: "image too big", field: FieldImage1, in: make([]byte, 11), max: 10, wantErr: ErrTooLong},
		{name: "image fits", field: FieldImage1, in: make([]byte, 10), max: 10},
		{name: "image content type", field: FieldImageContentType, in: "text/plain", wantErr: ErrInvalidValue},
		{name: "empty member", field: FieldDistributionList, in: []DistributionListEntry{{DisplayName: "x"}}, wantErr: ErrInvalidValue},
		{name: "link without contact", field: FieldLinks, in: []Link{{DisplayName: "x"}}, wantErr: ErrInvalidValue},
		{name: "wrong type reaches setter", field: FieldGivenName, in: 5, wantErr: ErrWrongType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Contact{}
			_, err := tt.field.Switch(Validator{MaxImageSize: tt.max}, c, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if Contains(c, tt.field) {
					t.Error("rejected value was stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !Contains(c, tt.field) {
				t.Error("expected value stored")
			}
		})
	}
}

func TestChainOrder(t *testing.T) {
	t.Run("coerce then validate", func(t *testing.T) {
		c := &Contact{}
		sw := Chain(Setter{}, Coercing(), Validating(0))
		_, err := FieldColorLabel.Switch(sw, c, "300")
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("expected ErrInvalidValue, got %v", err)
		}
	})
	t.Run("validate then coerce", func(t *testing.T) {
		c := &Contact{}
		sw := Chain(Setter{}, Validating(0), Coercing())
		if _, err := FieldColorLabel.Switch(sw, c, "300"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ColorLabel != 300 {
			t.Errorf("expected 300, got %d", c.ColorLabel)
		}
	})
}

func TestSwitcherFuncDecorator(t *testing.T) {
	var seen []Field
	recorder := func(next Switcher) Switcher {
		return SwitcherFunc(func(f Field, c *Contact, v any) (any, error) {
			seen = append(seen, f)
			return next.Switch(f, c, v)
		})
	}
	sw := Chain(Setter{}, recorder)
	c := &Contact{}
	for _, f := range []Field{FieldGivenName, FieldSurName} {
		if _, err := f.Switch(sw, c, "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(seen) != 2 || seen[0] != FieldGivenName || seen[1] != FieldSurName {
		t.Errorf("unexpected calls %v", seen)
	}
}
