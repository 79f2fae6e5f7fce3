package viewstate

import (
	"encoding/json"
	"fmt"
)

// Section a set of form sections, one bit each
type Section uint16

const (
	OriginSection Section = 1 << iota
	DestinationSection
	PersonSection
	ProviderSection
	VehicleSection
	FuelSection
	SocialAidSection
	NotesSection
)

var sectionNames = []struct {
	section Section
	name    string
}{
	{OriginSection, "cuenta_origen"},
	{DestinationSection, "cuenta_destino"},
	{PersonSection, "persona"},
	{ProviderSection, "proveedor"},
	{VehicleSection, "vehiculo"},
	{FuelSection, "combustible"},
	{SocialAidSection, "ayuda_social"},
	{NotesSection, "observaciones"},
}

// Has reports whether every section in other is in s
func (s Section) Has(other Section) bool {
	return other != 0 && s&other == other
}

// Names the section names in display order
func (s Section) Names() []string {
	names := []string{}
	for _, n := range sectionNames {
		if s&n.section != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

// SectionNamed looks a single section up by name
func SectionNamed(name string) (Section, bool) {
	for _, n := range sectionNames {
		if n.name == name {
			return n.section, true
		}
	}
	return 0, false
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("sections: %w", err)
	}
	var out Section
	for _, name := range names {
		section, ok := SectionNamed(name)
		if !ok {
			return fmt.Errorf("unknown section %q", name)
		}
		out |= section
	}
	*s = out
	return nil
}
