package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent returned by DecodeEvent for an unrecognised type
var ErrUnknownEvent = errors.New("unknown event")

// eventTypes maps wire names to a constructor of the zero event
var eventTypes = map[string]func() Event{
	"mode_changed":          func() Event { return &ModeChanged{} },
	"category_selected":     func() Event { return &CategorySelected{} },
	"category_cleared":      func() Event { return &CategoryCleared{} },
	"tab_activated":         func() Event { return &TabActivated{} },
	"selected":              func() Event { return &Selected{} },
	"selection_cleared":     func() Event { return &SelectionCleared{} },
	"delivery_mode_changed": func() Event { return &DeliveryModeChanged{} },
	"section_toggled":       func() Event { return &SectionToggled{} },
	"amount_focused":        func() Event { return &AmountFocused{} },
	"amount_typed":          func() Event { return &AmountTyped{} },
	"amount_blurred":        func() Event { return &AmountBlurred{} },
}

// DecodeEvent reads an event of the form {"type": "amount_typed", "text": "1.234"}
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	build, ok := eventTypes[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%q: %w", envelope.Type, ErrUnknownEvent)
	}

	e := build()
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", envelope.Type, err)
	}
	return deref(e), nil
}

// deref turns the pointer used for decoding back into the value event
func deref(e Event) Event {
	switch v := e.(type) {
	case *ModeChanged:
		return *v
	case *CategorySelected:
		return *v
	case *CategoryCleared:
		return *v
	case *TabActivated:
		return *v
	case *Selected:
		return *v
	case *SelectionCleared:
		return *v
	case *DeliveryModeChanged:
		return *v
	case *SectionToggled:
		return *v
	case *AmountFocused:
		return *v
	case *AmountTyped:
		return *v
	case *AmountBlurred:
		return *v
	}
	return e
}
