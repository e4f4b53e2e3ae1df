package filing

import (
	"fmt"
	"strings"
)

// Owner filters browse results by insider ownership documents.
// The zero value is OwnerInclude.
type Owner int

const (
	// OwnerInclude returns all documents regardless of source.
	OwnerInclude Owner = iota
	// OwnerExclude drops documents about director or officer ownership.
	OwnerExclude
	// OwnerOnly keeps only documents about director or officer ownership.
	OwnerOnly
)

var ownerNames = [...]string{
	OwnerInclude: "include",
	OwnerExclude: "exclude",
	OwnerOnly:    "only",
}

var ownerIndex = func() map[string]Owner {
	m := make(map[string]Owner, len(ownerNames))
	for i, name := range ownerNames {
		m[strings.ToUpper(name)] = Owner(i)
	}
	return m
}()

// ParseOwner maps "include", "exclude" or "only" in any casing to an Owner.
func ParseOwner(s string) (Owner, error) {
	o, ok := ownerIndex[strings.ToUpper(s)]
	if !ok {
		return 0, &UnknownError{Kind: ErrUnknownOwner, Value: s}
	}
	return o, nil
}

// Owners returns every owner option in table order.
func Owners() []Owner {
	return []Owner{OwnerInclude, OwnerExclude, OwnerOnly}
}

func (o Owner) Valid() bool {
	return o >= 0 && int(o) < len(ownerNames)
}

func (o Owner) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Owner(%d)", int(o))
	}
	return ownerNames[o]
}

func (o Owner) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, &UnknownError{Kind: ErrUnknownOwner, Value: o.String()}
	}
	return []byte(ownerNames[o]), nil
}

func (o *Owner) UnmarshalText(text []byte) error {
	v, err := ParseOwner(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o *Owner) Set(s string) error {
	return o.UnmarshalText([]byte(s))
}

func (o *Owner) Type() string {
	return "owner"
}
