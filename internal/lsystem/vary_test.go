package lsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaryKeepsOriginalRuleFirst(t *testing.T) {
	g := Grammar{
		Axiom:      "F",
		Rules:      Deterministic(map[rune]string{'F': "FF[+F][-F][+++F][---F]F"}),
		Iterations: 3,
	}
	varied := Vary(g, 0.5, 7)
	rules := varied.Rules['F']
	require.NotEmpty(t, rules)
	assert.Equal(t, "FF[+F][-F][+++F][---F]F", rules[0].Successor)
	assert.Equal(t, 1.0, rules[0].Weight)
	for _, r := range rules[1:] {
		assert.Equal(t, 0.5, r.Weight)
	}
	assert.Equal(t, g.Axiom, varied.Axiom)
	assert.Equal(t, g.Iterations, varied.Iterations)
}

func TestVaryIsDeterministicPerSeed(t *testing.T) {
	g := Grammar{Axiom: "F", Rules: Deterministic(map[rune]string{'F': "F[+F]F[-F]F"}), Iterations: 2}
	assert.Equal(t, Vary(g, 0.3, 11), Vary(g, 0.3, 11))
}

func TestVaryZeroAmountDoesNotAddVariants(t *testing.T) {
	g := Grammar{Axiom: "F", Rules: Deterministic(map[rune]string{'F': "F[+F]F[-F]F"})}
	varied := Vary(g, 0, 1)
	assert.Len(t, varied.Rules['F'], 1)
	assert.False(t, varied.Stochastic())
}

func TestVaryDoesNotMutateInput(t *testing.T) {
	g := Grammar{Axiom: "F", Rules: Deterministic(map[rune]string{'F': "F[+F]F[-F]F"})}
	_ = Vary(g, 1, 3)
	assert.Len(t, g.Rules['F'], 1)
}

func TestVaryFullAmountProducesVariants(t *testing.T) {
	g := Grammar{Axiom: "F", Rules: Deterministic(map[rune]string{'F': "F[+F]F[-F]F"})}
	varied := Vary(g, 1, 3)
	rules := varied.Rules['F']
	require.Len(t, rules, 3)
	assert.Equal(t, "F[-F]F[+F]F", rules[1].Successor)
	assert.Equal(t, 7, countRune(rules[2].Successor, '+')+countRune(rules[2].Successor, '-'))
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}
