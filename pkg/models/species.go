package models

import "strings"

// SpeciesSeparator splits the type and subtype parts of a species value
const SpeciesSeparator = "::"

// Species is a parsed species value of the form "<Type>::<Subtype>"
type Species struct {
	Type    string
	Subtype string
}

// ParseSpecies splits s on the first separator and trims both parts. The
// boolean is false when s has no separator. Only the second segment is the
// subtype; anything after a further separator is dropped.
func ParseSpecies(s string) (Species, bool) {
	typ, rest, found := strings.Cut(s, SpeciesSeparator)
	if !found {
		return Species{Type: strings.TrimSpace(s)}, false
	}
	subtype, _, _ := strings.Cut(rest, SpeciesSeparator)
	return Species{
		Type:    strings.TrimSpace(typ),
		Subtype: strings.TrimSpace(subtype),
	}, true
}

// HasSubtype reports whether the species carries a non-empty subtype
func (s Species) HasSubtype() bool {
	return s.Subtype != ""
}

// String renders the species back in "<Type> :: <Subtype>" form
func (s Species) String() string {
	if !s.HasSubtype() {
		return s.Type
	}
	return s.Type + " " + SpeciesSeparator + " " + s.Subtype
}
