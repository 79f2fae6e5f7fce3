package amount

// Field is the pair of inputs behind one amount on a form: the text the user
// sees and edits, and the hidden canonical value that is actually submitted.
// Methods return a new Field; the receiver is never modified.
type Field struct {
	// Visible text shown in the input
	Visible string `json:"visible"`

	// Shadow canonical value submitted with the form, "" when no amount
	Shadow string `json:"shadow"`

	// Focused whether the user is editing the visible input
	Focused bool `json:"focused"`
}

// Load builds the field for a value coming from the server on initial render.
// A plain decimal such as "1234.567" is rounded to Places first; anything
// else is read as typed text.
func Load(value string) Field {
	canonical := ToCanonical(value)
	if plainDecimal.MatchString(value) {
		canonical = ToCanonical(ToDisplay(value))
	}
	return Field{
		Visible: ToDisplay(canonical),
		Shadow:  canonical,
	}
}

// Focus marks the field as being edited. The visible text is left as is.
func (f Field) Focus() Field {
	f.Focused = true
	return f
}

// Input records a keystroke: the raw text stays visible while the shadow is
// recomputed from it.
func (f Field) Input(text string) Field {
	f.Visible = text
	f.Shadow = ToCanonical(text)
	return f
}

// Blur leaves editing mode and replaces the raw text with its display form
func (f Field) Blur() Field {
	f.Focused = false
	f.Visible = ToDisplay(f.Shadow)
	return f
}

// Empty reports whether the field carries no amount
func (f Field) Empty() bool {
	return f.Shadow == ""
}
