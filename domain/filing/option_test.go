package filing

import (
	"errors"
	"strings"
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Type
	}{
		{"Canonical", "10-K", Type10K},
		{"Lower case", "10-k", Type10K},
		{"Mixed case", "s-1", TypeS1},
		{"Lower case canonical", "19b-4", Type19B4},
		{"Upper case of lower canonical", "19B-4(E)", Type19B4E},
		{"Long code", "x-17a-5", TypeX17A5},
		{"Numeric only", "144", Type144},
		{"Sentinel", "1-U", Type1U},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseType(test.input)
			if err != nil {
				t.Fatalf("ParseType(%q) returned error: %s", test.input, err)
			}
			if got != test.want {
				t.Errorf("ParseType(%q) = %s, want %s", test.input, got, test.want)
			}
		})
	}
}

func TestParseTypeUnknown(t *testing.T) {
	for _, input := range []string{"", "INVALID", "10K", "WRONG-FORM", " 10-K"} {
		_, err := ParseType(input)
		if !errors.Is(err, ErrUnknownFilingType) {
			t.Errorf("ParseType(%q) error = %v, want ErrUnknownFilingType", input, err)
		}
		var unknown *UnknownError
		if !errors.As(err, &unknown) || unknown.Value != input {
			t.Errorf("ParseType(%q) did not carry the offending value", input)
		}
	}
}

func TestTypeRoundTrip(t *testing.T) {
	types := Types()
	if len(types) != len(typeNames)-1 {
		t.Fatalf("Got %d types, want %d", len(types), len(typeNames)-1)
	}
	seen := make(map[string]bool)
	for _, ft := range types {
		s := ft.String()
		if seen[strings.ToUpper(s)] {
			t.Errorf("Duplicate spelling %q", s)
		}
		seen[strings.ToUpper(s)] = true

		got, err := ParseType(s)
		if err != nil {
			t.Errorf("ParseType(%q) returned error: %s", s, err)
			continue
		}
		if got != ft {
			t.Errorf("ParseType(%q) = %d, want %d", s, got, ft)
		}

		// parse of any casing renders back to the canonical form
		for _, variant := range []string{strings.ToLower(s), strings.ToUpper(s)} {
			got, err := ParseType(variant)
			if err != nil || got.String() != s {
				t.Errorf("ParseType(%q) rendered %q, want %q", variant, got.String(), s)
			}
		}
	}
}

func TestTypeString(t *testing.T) {
	if Type10K.String() != "10-K" {
		t.Errorf("Got %q, want %q", Type10K.String(), "10-K")
	}
	if DefaultType.String() != "1-U" {
		t.Errorf("Got %q, want %q", DefaultType.String(), "1-U")
	}
	if Type(0).Valid() {
		t.Errorf("Zero type must not be valid")
	}
	if Type(0).String() != "Type(0)" {
		t.Errorf("Got %q for zero type", Type(0).String())
	}
}

func TestTypeText(t *testing.T) {
	var ft Type
	if err := ft.Set("n-port"); err != nil {
		t.Fatal(err)
	}
	if ft != TypeNPORT {
		t.Errorf("Got %s, want %s", ft, TypeNPORT)
	}
	b, err := ft.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "N-PORT" {
		t.Errorf("Got %q, want %q", string(b), "N-PORT")
	}
	if _, err := Type(0).MarshalText(); err == nil {
		t.Errorf("Expected error marshalling the zero type")
	}
	if err := ft.Set("nope"); err == nil {
		t.Errorf("Expected error setting unknown type")
	}
	if ft != TypeNPORT {
		t.Errorf("Failed Set must not change the value, got %s", ft)
	}
}

func TestParseOwner(t *testing.T) {
	tests := []struct {
		input string
		want  Owner
	}{
		{"include", OwnerInclude},
		{"INCLUDE", OwnerInclude},
		{"Exclude", OwnerExclude},
		{"exclude", OwnerExclude},
		{"only", OwnerOnly},
		{"oNlY", OwnerOnly},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseOwner(test.input)
			if err != nil {
				t.Fatalf("ParseOwner(%q) returned error: %s", test.input, err)
			}
			if got != test.want {
				t.Errorf("ParseOwner(%q) = %s, want %s", test.input, got, test.want)
			}
			back, err := ParseOwner(got.String())
			if err != nil || back != got {
				t.Errorf("Round trip of %s failed", got)
			}
		})
	}

	_, err := ParseOwner("sometimes")
	if !errors.Is(err, ErrUnknownOwner) {
		t.Errorf("Got %v, want ErrUnknownOwner", err)
	}
}

func TestOwnerDefault(t *testing.T) {
	var o Owner
	if o != OwnerInclude || o.String() != "include" {
		t.Errorf("Zero owner is %q, want include", o.String())
	}
	if Owner(7).Valid() {
		t.Errorf("Owner(7) must not be valid")
	}
}
