// Package token generates trivia answer tokens for FCFS events.
//
// The token is generated at materialization time, not at event-definition
// time, so the accepted answer is not guessable before the activation window.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Default token shape: one character out of "1234" (product policy for the
// quiz-style activation gate).
const (
	DefaultAlphabet = "1234"
	DefaultLength   = 1
)

// Generator produces answer tokens from a fixed alphabet.
type Generator struct {
	alphabet string
	length   int
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithAlphabet sets the token alphabet.
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		if alphabet != "" {
			g.alphabet = alphabet
		}
	}
}

// WithLength sets the token length.
func WithLength(length int) Option {
	return func(g *Generator) {
		if length > 0 {
			g.length = length
		}
	}
}

// NewGenerator creates a Generator with default configuration.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		alphabet: DefaultAlphabet,
		length:   DefaultLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh random token.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, g.length)
	size := big.NewInt(int64(len(g.alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("token generation failed: %w", err)
		}
		out[i] = g.alphabet[n.Int64()]
	}
	return string(out), nil
}
