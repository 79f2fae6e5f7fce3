// Package viewstate holds the UI state of the movement form as a plain value
// and the pure reducer that moves it from one event to the next.
package viewstate

import (
	"muni-form-assist/amount"
	"muni-form-assist/domain"
	"strings"
)

// Mode operation type of a movement
type Mode string

const (
	NoMode   Mode = ""
	Income   Mode = "INGRESO"
	Expense  Mode = "GASTO"
	Transfer Mode = "TRANSFERENCIA"
)

// ModeOf reads the operation type from the free text of the tipo select
func ModeOf(tipo string) Mode {
	t := strings.ToUpper(strings.TrimSpace(tipo))
	switch {
	case strings.Contains(t, "ING"):
		return Income
	case strings.Contains(t, "GAS"), strings.Contains(t, "EGR"), strings.Contains(t, "SAL"):
		return Expense
	case strings.Contains(t, "TRANS"):
		return Transfer
	}
	return NoMode
}

// CategoryType which operations a category applies to
type CategoryType string

const (
	IncomeCategory  CategoryType = "INGRESO"
	ExpenseCategory CategoryType = "GASTO"
	BothCategory    CategoryType = "AMBOS"
)

// Category the flags of a category that drive the form
type Category struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	SocialAid bool         `json:"social_aid"`
	Fuel      bool         `json:"fuel"`
	Service   bool         `json:"service"`
	Personnel bool         `json:"personnel"`
}

// Tab of the person panel
type Tab string

const (
	SearchTab Tab = "buscar"
	NewTab    Tab = "nueva"
)

// NoDelivery delivery mode of anything that is not social aid
const NoDelivery = "NINGUNO"

// State everything the movement form shows besides the server data
type State struct {
	Mode     Mode      `json:"mode"`
	Category *Category `json:"category,omitempty"`

	PersonTab Tab                `json:"person_tab"`
	Person    *domain.Suggestion `json:"person,omitempty"`
	Provider  *domain.Suggestion `json:"provider,omitempty"`
	Vehicle   *domain.Suggestion `json:"vehicle,omitempty"`

	// DeliveryMode how social aid is handed out (tipo_pago_persona)
	DeliveryMode string `json:"delivery_mode"`

	// Collapsed sections the user folded by hand
	Collapsed Section `json:"collapsed"`

	Amount amount.Field `json:"amount"`
}

// New returns the state of a blank form, or of an edit form when tipo and
// the stored amount are given.
func New(tipo, storedAmount string) State {
	s := State{
		Mode:         ModeOf(tipo),
		PersonTab:    SearchTab,
		DeliveryMode: NoDelivery,
		Amount:       amount.Load(storedAmount),
	}
	return s
}

// Sections the sections available for the current mode and category
func (s State) Sections() Section {
	switch s.Mode {
	case Income:
		return DestinationSection | PersonSection | NotesSection
	case Expense:
		sections := OriginSection | PersonSection | ProviderSection | NotesSection
		if s.socialAid() {
			sections |= SocialAidSection
		}
		if s.fuel() {
			sections |= FuelSection | VehicleSection
		}
		return sections
	case Transfer:
		return OriginSection | DestinationSection | NotesSection
	}
	return 0
}

// Open the sections actually unfolded on screen
func (s State) Open() Section {
	return s.Sections() &^ s.Collapsed
}

// AllowsCategory reports whether a category of type t can be picked in the current mode
func (s State) AllowsCategory(t CategoryType) bool {
	switch s.Mode {
	case Income:
		return t == IncomeCategory || t == BothCategory
	case Expense:
		return t == ExpenseCategory || t == BothCategory
	}
	return true
}

// RequiresPerson an expense needs a beneficiary when it is social aid or
// when neither a provider nor a vehicle is set
func (s State) RequiresPerson() bool {
	if s.Mode != Expense {
		return false
	}
	return s.socialAid() || (s.Provider == nil && s.Vehicle == nil)
}

// RequiresDeliveryMode social aid must say how it is delivered
func (s State) RequiresDeliveryMode() bool {
	return s.Mode == Expense && s.socialAid() && s.DeliveryMode == NoDelivery
}

func (s State) socialAid() bool {
	return s.Category != nil && s.Category.SocialAid
}

func (s State) fuel() bool {
	return s.Category != nil && s.Category.Fuel
}

// sectionOf the section holding a lookup of kind k
func sectionOf(k domain.Kind) Section {
	switch k {
	case domain.Person:
		return PersonSection
	case domain.Provider:
		return ProviderSection
	case domain.Vehicle:
		return VehicleSection
	}
	return 0
}
