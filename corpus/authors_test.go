package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input    string
		name     string
		figureID string
	}{
		{"kuczynski", "J.-M. Kuczynski", "kuczynski"},
		{"von-mises", "Ludwig von Mises", "mises"},
		{"VON_MISES", "Ludwig von Mises", "mises"},
		{"le-bon", "Gustave Le Bon", "lebon"},
		{"lebon", "Gustave Le Bon", "lebon"},
		{"Karl Marx", "Karl Marx", "marx"},
		{"  karl marx ", "Karl Marx", "marx"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a, ok := r.Lookup(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.name, a.Name)
			assert.Equal(t, tt.figureID, a.FigureID)
		})
	}
}

func TestAuthorRegistry_ResolveUnknown(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Lookup("Simone Weil")
	assert.False(t, ok)

	a := r.Resolve(" Simone Weil ")
	assert.Equal(t, Author{Name: "Simone Weil", FigureID: "simone-weil"}, a)
}

func TestAuthorRegistry_Register(t *testing.T) {
	r := NewAuthorRegistry()
	assert.Zero(t, r.Len())

	r.Register("weil", Author{Name: "Simone Weil", FigureID: "weil"})
	a, ok := r.Lookup("WEIL")
	assert.True(t, ok)
	assert.Equal(t, "weil", a.FigureID)
	assert.Equal(t, 1, r.Len())
}
