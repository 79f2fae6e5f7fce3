package viewstate

import (
	"muni-form-assist/domain"
	"strings"
)

// Event something the user did on the form
type Event interface {
	apply(State) State
}

// Reduce returns the state that follows s after e. It never fails: events
// that do not apply to the current state leave it unchanged.
func Reduce(s State, e Event) State {
	if e == nil {
		return s
	}
	return settle(e.apply(s))
}

// settle drops whatever the current mode and category no longer show
func settle(s State) State {
	visible := s.Sections()
	if !visible.Has(PersonSection) {
		s.Person = nil
		s.PersonTab = SearchTab
	}
	if !visible.Has(ProviderSection) {
		s.Provider = nil
	}
	if !visible.Has(VehicleSection) {
		s.Vehicle = nil
	}
	if !visible.Has(SocialAidSection) {
		s.DeliveryMode = NoDelivery
	}
	if s.PersonTab == "" {
		s.PersonTab = SearchTab
	}
	if s.DeliveryMode == "" {
		s.DeliveryMode = NoDelivery
	}
	return s
}

// ModeChanged the tipo select changed
type ModeChanged struct {
	Tipo string `json:"tipo"`
}

func (e ModeChanged) apply(s State) State {
	s.Mode = ModeOf(e.Tipo)
	if s.Category != nil && !s.AllowsCategory(s.Category.Type) {
		s.Category = nil
	}
	return s
}

// CategorySelected a category was picked
type CategorySelected struct {
	Category Category `json:"category"`
}

func (e CategorySelected) apply(s State) State {
	if !s.AllowsCategory(e.Category.Type) {
		return s
	}
	c := e.Category
	s.Category = &c
	return s
}

// CategoryCleared the category select was emptied
type CategoryCleared struct{}

func (CategoryCleared) apply(s State) State {
	s.Category = nil
	return s
}

// TabActivated a tab of the person panel was clicked
type TabActivated struct {
	Tab Tab `json:"tab"`
}

func (e TabActivated) apply(s State) State {
	if !s.Sections().Has(PersonSection) {
		return s
	}
	switch e.Tab {
	case NewTab:
		// a new person and a registered one are mutually exclusive
		s.Person = nil
		s.PersonTab = NewTab
	case SearchTab:
		s.PersonTab = SearchTab
	}
	return s
}

// Selected an autocomplete option was chosen
type Selected struct {
	Kind       domain.Kind       `json:"kind"`
	Suggestion domain.Suggestion `json:"suggestion"`
}

func (e Selected) apply(s State) State {
	if !s.Sections().Has(sectionOf(e.Kind)) {
		return s
	}
	picked := e.Suggestion
	picked.Kind = e.Kind
	switch e.Kind {
	case domain.Person:
		s.Person = &picked
		s.PersonTab = SearchTab
	case domain.Provider:
		s.Provider = &picked
	case domain.Vehicle:
		s.Vehicle = &picked
	}
	return s
}

// SelectionCleared an autocomplete was emptied
type SelectionCleared struct {
	Kind domain.Kind `json:"kind"`
}

func (e SelectionCleared) apply(s State) State {
	switch e.Kind {
	case domain.Person:
		s.Person = nil
	case domain.Provider:
		s.Provider = nil
	case domain.Vehicle:
		s.Vehicle = nil
	}
	return s
}

// DeliveryModeChanged the social aid delivery select changed
type DeliveryModeChanged struct {
	DeliveryMode string `json:"delivery_mode"`
}

func (e DeliveryModeChanged) apply(s State) State {
	if !s.Sections().Has(SocialAidSection) {
		return s
	}
	mode := strings.ToUpper(strings.TrimSpace(e.DeliveryMode))
	switch mode {
	case "", "NO", "N/A", "NA":
		mode = NoDelivery
	}
	s.DeliveryMode = mode
	return s
}

// SectionToggled a collapsible section header was clicked
type SectionToggled struct {
	Section Section `json:"section"`
}

func (e SectionToggled) apply(s State) State {
	s.Collapsed ^= e.Section
	return s
}

// AmountFocused the amount input gained focus
type AmountFocused struct{}

func (AmountFocused) apply(s State) State {
	s.Amount = s.Amount.Focus()
	return s
}

// AmountTyped a keystroke in the amount input
type AmountTyped struct {
	Text string `json:"text"`
}

func (e AmountTyped) apply(s State) State {
	s.Amount = s.Amount.Input(e.Text)
	return s
}

// AmountBlurred the amount input lost focus
type AmountBlurred struct{}

func (AmountBlurred) apply(s State) State {
	s.Amount = s.Amount.Blur()
	return s
}
