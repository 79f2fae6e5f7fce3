package domain

// Kind of remote record a form field can look up
type Kind string

const (
	Person   Kind = "persona"
	Provider Kind = "proveedor"
	Vehicle  Kind = "vehiculo"
)

// Kinds every known lookup kind
var Kinds = []Kind{Person, Provider, Vehicle}

// Valid reports whether k is a known lookup kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Suggestion a single autocomplete option
type Suggestion struct {
	ID   int64  `json:"id"`
	Kind Kind   `json:"kind"`
	Text string `json:"text"`

	// Document DNI for people, CUIT for providers, plate for vehicles
	Document string `json:"document,omitempty"`

	// Detail address for people, description for vehicles
	Detail string `json:"detail,omitempty"`
}

// Match result of an exact lookup by document
type Match struct {
	Found        bool   `json:"found"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Normalized an amount as typed, as submitted and as shown
type Normalized struct {
	Canonical string `json:"canonical"`
	Display   string `json:"display"`
}

// NewPerson payload for the quick-create person modal
type NewPerson struct {
	DNI          string `json:"dni" validate:"required,numeric,dnilen"`
	Surname      string `json:"apellido" validate:"required"`
	Name         string `json:"nombre" validate:"required"`
	Address      string `json:"direccion,omitempty"`
	Neighborhood string `json:"barrio,omitempty"`
	Phone        string `json:"telefono,omitempty"`
}
