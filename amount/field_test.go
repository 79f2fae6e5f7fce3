package amount

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestField_TypingSession(t *testing.T) {
	f := Load("")
	assert.True(t, f.Empty())
	assert.Equal(t, "", f.Visible)

	f = f.Focus()
	assert.True(t, f.Focused)

	f = f.Input("1.2")
	assert.Equal(t, "1.2", f.Visible, "raw text stays while typing")
	assert.Equal(t, "1.20", f.Shadow)

	f = f.Input("1.234")
	assert.Equal(t, "1.234", f.Visible)
	assert.Equal(t, "1234.00", f.Shadow)

	f = f.Input("1.234,5")
	assert.Equal(t, "1234.50", f.Shadow)

	f = f.Blur()
	assert.False(t, f.Focused)
	assert.Equal(t, "1.234,50", f.Visible)
	assert.Equal(t, "1234.50", f.Shadow)
}

func TestField_Load(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		visible string
		shadow  string
	}{
		{"server decimal", "1234.5", "1.234,50", "1234.50"},
		{"server integer", "41000", "41.000,00", "41000.00"},
		{"no value", "", "", ""},
		{"garbage", "n/a", "0,00", "0.00"},
		{"more fraction digits", "1234.567", "1.234,57", "1234.57"},
		{"exponent read as text", "1e9", "19,00", "19.00"},
		{"huge exponent read as text", "1e50000000", "150.000.000,00", "150000000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Load(tt.value)
			assert.Equal(t, tt.visible, f.Visible)
			assert.Equal(t, tt.shadow, f.Shadow)
			assert.False(t, f.Focused)
		})
	}
}

func TestField_ValueSemantics(t *testing.T) {
	original := Load("10")
	_ = original.Focus().Input("99")
	assert.Equal(t, "10.00", original.Shadow)
	assert.Equal(t, "10,00", original.Visible)
}

func TestField_BlurKeepsNonDecimalShadow(t *testing.T) {
	f := Field{Shadow: "1e50000000", Focused: true}.Blur()
	assert.Equal(t, "1e50000000", f.Visible)
	assert.False(t, f.Focused)
}

func TestField_ClearingInput(t *testing.T) {
	f := Load("10").Focus().Input("")
	assert.True(t, f.Empty())
	assert.Equal(t, "", f.Blur().Visible)
}
