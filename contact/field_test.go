package contact

import (
	"errors"
	"slices"
	"testing"
	"time"
)

// sampleValue returns a non-zero value of the field's kind.
func sampleValue(f Field) any {
	switch f.Kind() {
	case KindString:
		return "x"
	case KindInt:
		return 3
	case KindBool:
		return true
	case KindDate:
		return time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	case KindTime:
		return time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	case KindBytes:
		return []byte{1, 2}
	case KindDistributionList:
		return []DistributionListEntry{{Email: "a@example.com"}}
	case KindLinks:
		return []Link{{ContactID: "1"}}
	}
	return nil
}

func TestFieldsOrdered(t *testing.T) {
	fields := Fields()
	if len(fields) != len(fieldTable) {
		t.Fatalf("expected %d fields, got %d", len(fieldTable), len(fields))
	}
	if !slices.IsSorted(fields) {
		t.Error("fields not in id order")
	}
	if fields[0] != FieldObjectID {
		t.Errorf("expected first field ObjectID, got %v", fields[0])
	}
}

func TestEveryFieldReachable(t *testing.T) {
	for _, f := range Fields() {
		t.Run(f.String(), func(t *testing.T) {
			c := &Contact{}
			if Contains(c, f) {
				t.Fatal("empty contact reports value")
			}
			want := sampleValue(f)
			if _, err := f.Switch(Setter{}, c, want); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := f.Switch(Getter{}, c, nil)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !equalValues(want, got) {
				t.Errorf("expected %v, got %v", want, got)
			}
			if !Contains(c, f) {
				t.Error("expected Contains after set")
			}
			s, err := f.Switch(Stringer{}, c, nil)
			if err != nil {
				t.Fatalf("string: %v", err)
			}
			if s.(string) == "" {
				t.Error("expected non-empty string form")
			}
			if _, err := f.Switch(Setter{}, c, nil); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if Contains(c, f) {
				t.Error("expected field cleared")
			}
		})
	}
}

func TestFieldMetadata(t *testing.T) {
	for _, f := range Fields() {
		if f.Column() == "" || f.JSONName() == "" || f.DisplayName() == "" {
			t.Errorf("%v: incomplete metadata", f)
		}
		if f.Kind() == 0 {
			t.Errorf("%v: no kind", f)
		}
	}
	seen := make(map[string]Field)
	for _, f := range Fields() {
		if prev, ok := seen[f.DisplayName()]; ok {
			t.Errorf("%v and %v share display name %q", prev, f, f.DisplayName())
		}
		seen[f.DisplayName()] = f
	}
	if got := FieldNumberOfEmployees.DisplayName(); got != "Number of employees" {
		t.Errorf("unexpected display name %q", got)
	}
	if FieldGivenName.ID() != 501 {
		t.Errorf("expected id 501, got %d", FieldGivenName.ID())
	}
	if FieldGivenName.JSONName() != "first_name" {
		t.Errorf("unexpected json name %q", FieldGivenName.JSONName())
	}
	if Field(9999).Valid() {
		t.Error("unknown field reported valid")
	}
	if Field(9999).String() != "Field(9999)" {
		t.Errorf("unexpected string %q", Field(9999).String())
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{in: "501", want: FieldGivenName},
		{in: "first_name", want: FieldGivenName},
		{in: "given_name", want: FieldGivenName},
		{in: "GivenName", want: FieldGivenName},
		{in: " givenname ", want: FieldGivenName},
		{in: "userfield03", want: FieldUserField03},
		{in: "9999", wantErr: true},
		{in: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownField) {
					t.Errorf("expected ErrUnknownField, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	if f, ok := FieldByColumn("email1"); !ok || f != FieldEmail1 {
		t.Errorf("FieldByColumn: got %v %v", f, ok)
	}
	if f, ok := FieldByJSONName("last_name"); !ok || f != FieldSurName {
		t.Errorf("FieldByJSONName: got %v %v", f, ok)
	}
	if _, ok := FieldByID(42); ok {
		t.Error("FieldByID(42) should fail")
	}
}

func TestSwitchErrors(t *testing.T) {
	_, err := Field(9999).Switch(Getter{}, &Contact{}, nil)
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	_, err = FieldGivenName.Switch(Getter{}, nil, nil)
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != FieldGivenName {
		t.Errorf("expected *FieldError for GivenName, got %v", err)
	}
}

func TestIdentityAndEmail(t *testing.T) {
	if !FieldObjectID.IsIdentity() || !FieldUseCount.IsIdentity() {
		t.Error("expected identity fields")
	}
	if FieldGivenName.IsIdentity() {
		t.Error("GivenName is not an identity field")
	}
	if !FieldEmail2.IsEmail() || FieldURL.IsEmail() {
		t.Error("IsEmail mismatch")
	}
}
