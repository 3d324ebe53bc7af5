// Package lsystem rewrites L-system grammars into symbol strings.
//
// A Grammar maps single-rune predecessors to one or more weighted successors.
// Symbols without a rule are terminal and pass through unchanged. When a
// symbol has several rules one is chosen per occurrence from a generator
// seeded by Grammar.Seed, so the same grammar always expands to the same
// string.
package lsystem

import (
	"fmt"
	"sort"
	"strings"

	"arborgen/internal/domain"
	"arborgen/internal/rng"
)

const (
	// MaxIterations is the hard ceiling on rewriting passes.
	MaxIterations = 12
	// DefaultMaxLength bounds the expanded string in symbols.
	DefaultMaxLength = 4 << 20
)

// Rule is one production for a predecessor symbol. Weight only matters when
// the symbol has more than one rule; a set of all-zero weights is uniform.
type Rule struct {
	Successor string  `json:"successor" yaml:"successor"`
	Weight    float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Grammar is a complete L-system definition.
type Grammar struct {
	Axiom      string
	Rules      map[rune][]Rule
	Iterations int
	Seed       int64
}

// Deterministic builds a rule table with exactly one successor per symbol.
func Deterministic(rules map[rune]string) map[rune][]Rule {
	out := make(map[rune][]Rule, len(rules))
	for sym, succ := range rules {
		out[sym] = []Rule{{Successor: succ, Weight: 1}}
	}
	return out
}

// Stochastic reports whether any symbol has more than one rule.
func (g Grammar) Stochastic() bool {
	for _, rules := range g.Rules {
		if len(rules) > 1 {
			return true
		}
	}
	return false
}

// Symbols returns the predecessors in a stable order.
func (g Grammar) Symbols() []rune {
	syms := make([]rune, 0, len(g.Rules))
	for sym := range g.Rules {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// Validate checks the grammar against the iteration ceiling.
func (g Grammar) Validate() error {
	return g.validate(MaxIterations)
}

func (g Grammar) validate(maxIterations int) error {
	if g.Axiom == "" {
		return domain.Invalid("axiom", "must be set")
	}
	if g.Iterations < 0 {
		return domain.Invalid("iterations", "cannot be negative")
	}
	if g.Iterations > maxIterations {
		return domain.Invalid("iterations", fmt.Sprintf("must be <= %d", maxIterations))
	}
	for _, sym := range g.Symbols() {
		rules := g.Rules[sym]
		if len(rules) == 0 {
			return domain.Invalid(fmt.Sprintf("rules[%c]", sym), "must have at least one successor")
		}
		for i, rule := range rules {
			if rule.Weight < 0 {
				return domain.Invalid(fmt.Sprintf("rules[%c][%d].weight", sym, i), "cannot be negative")
			}
		}
	}
	return nil
}

// LengthError reports a grammar whose expansion outgrew the configured bound.
type LengthError struct {
	Iteration int
	Length    int
	Limit     int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("expansion reached %d symbols at iteration %d (limit %d)", e.Length, e.Iteration, e.Limit)
}

func (e *LengthError) Unwrap() error {
	return domain.ErrLengthExceeded
}

type expandOptions struct {
	maxLength     int
	maxIterations int
}

// Option tunes Expand.
type Option func(*expandOptions)

// WithMaxLength caps the expanded string. Non-positive values keep the default.
func WithMaxLength(n int) Option {
	return func(o *expandOptions) {
		if n > 0 {
			o.maxLength = n
		}
	}
}

// WithMaxIterations lowers (never raises) the iteration ceiling.
func WithMaxIterations(n int) Option {
	return func(o *expandOptions) {
		if n > 0 && n < o.maxIterations {
			o.maxIterations = n
		}
	}
}

// Expand rewrites the axiom g.Iterations times. Zero iterations return the
// axiom unchanged. No partial string is returned on error.
func Expand(g Grammar, opts ...Option) (string, error) {
	o := expandOptions{maxLength: DefaultMaxLength, maxIterations: MaxIterations}
	for _, opt := range opts {
		opt(&o)
	}
	if err := g.validate(o.maxIterations); err != nil {
		return "", err
	}
	if len(g.Axiom) > o.maxLength {
		return "", &LengthError{Iteration: 0, Length: len(g.Axiom), Limit: o.maxLength}
	}

	r := rng.New(g.Seed)
	current := g.Axiom
	for i := 1; i <= g.Iterations; i++ {
		var b strings.Builder
		b.Grow(min(len(current)*4, o.maxLength))
		for _, sym := range current {
			rules := g.Rules[sym]
			switch len(rules) {
			case 0:
				b.WriteRune(sym)
			case 1:
				b.WriteString(rules[0].Successor)
			default:
				b.WriteString(rules[choose(r, rules)].Successor)
			}
			if b.Len() > o.maxLength {
				return "", &LengthError{Iteration: i, Length: b.Len(), Limit: o.maxLength}
			}
		}
		current = b.String()
	}
	return current, nil
}

func choose(r *rng.Source, rules []Rule) int {
	weights := make([]float64, len(rules))
	for i, rule := range rules {
		weights[i] = rule.Weight
	}
	if idx := r.Weighted(weights); idx >= 0 {
		return idx
	}
	return r.Intn(len(rules))
}
