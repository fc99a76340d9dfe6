// Package pickup generates the 4-digit codes customers quote at the counter.
package pickup

import (
	"fmt"
	"math/rand/v2"
)

// CodeLength is the number of digits in a pickup code.
const CodeLength = 4

// codeSpace is the number of distinct codes, 0000 through 9999.
const codeSpace = 10000

// Generator produces candidate pickup codes. Implementations make no
// uniqueness promise; callers enforce it against storage.
type Generator interface {
	Generate() string
}

// randomGenerator draws codes uniformly from 0000-9999.
type randomGenerator struct {
	intn func(n int) int
}

// NewRandomGenerator returns a Generator backed by math/rand/v2, which is
// safe for concurrent use.
func NewRandomGenerator() Generator {
	return &randomGenerator{intn: rand.IntN}
}

// Generate returns a zero-padded 4-digit code.
func (g *randomGenerator) Generate() string {
	return Format(g.intn(codeSpace))
}

// Format renders n as a zero-padded pickup code.
func Format(n int) string {
	return fmt.Sprintf("%0*d", CodeLength, n)
}

// Valid reports whether code is exactly four ASCII digits.
func Valid(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

// Generate calls f.
func (f GeneratorFunc) Generate() string {
	return f()
}
