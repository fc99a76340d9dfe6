package pickup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_Format(t *testing.T) {
	g := NewRandomGenerator()

	for i := 0; i < 1000; i++ {
		code := g.Generate()
		require.Len(t, code, CodeLength)
		require.True(t, Valid(code), "generated code %q is not 4 digits", code)
	}
}

func TestRandomGenerator_KeepsLeadingZeros(t *testing.T) {
	tests := []struct {
		drawn int
		want  string
	}{
		{0, "0000"},
		{7, "0007"},
		{42, "0042"},
		{305, "0305"},
		{9999, "9999"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			g := &randomGenerator{intn: func(n int) int {
				assert.Equal(t, codeSpace, n)
				return tt.drawn
			}}
			assert.Equal(t, tt.want, g.Generate())
		})
	}
}

func TestRandomGenerator_CoversRange(t *testing.T) {
	g := NewRandomGenerator()
	seen := make(map[string]struct{})

	for i := 0; i < 20000; i++ {
		seen[g.Generate()] = struct{}{}
	}

	// 20k uniform draws over 10k values leave ~1350 unseen on average.
	assert.Greater(t, len(seen), 8000)
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"0000", true},
		{"1234", true},
		{"12", false},
		{"12345", false},
		{"", false},
		{"12a4", false},
		{" 123", false},
		{"١٢٣٤", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.code))
		})
	}
}

func TestGeneratorFunc(t *testing.T) {
	g := GeneratorFunc(func() string { return "0420" })
	assert.Equal(t, "0420", g.Generate())
}
