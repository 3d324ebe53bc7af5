package lsystem

import (
	"strings"

	"arborgen/internal/rng"
)

// Vary returns a stochastic copy of g. Every rule keeps its original
// successor and gains up to two variants: one with some '+' and '-' turns
// mirrored, one with random turns inserted before 'F'. Variants carry
// amount times the original weight. amount <= 0 returns an unmodified copy.
func Vary(g Grammar, amount float64, seed int64) Grammar {
	out := g
	out.Rules = make(map[rune][]Rule, len(g.Rules))
	if amount > 1 {
		amount = 1
	}
	r := rng.New(seed)
	for _, sym := range g.Symbols() {
		rules := g.Rules[sym]
		varied := make([]Rule, 0, len(rules)*3)
		for _, rule := range rules {
			base := rule.Weight
			if base == 0 {
				base = 1
			}
			varied = append(varied, Rule{Successor: rule.Successor, Weight: base})
			if amount <= 0 {
				continue
			}
			if strings.ContainsRune(rule.Successor, '+') && strings.ContainsRune(rule.Successor, '-') {
				if mirrored := mirrorTurns(rule.Successor, amount, r); mirrored != rule.Successor {
					varied = append(varied, Rule{Successor: mirrored, Weight: base * amount})
				}
			}
			if turned := insertTurns(rule.Successor, amount, r); turned != rule.Successor {
				varied = append(varied, Rule{Successor: turned, Weight: base * amount})
			}
		}
		out.Rules[sym] = varied
	}
	return out
}

func mirrorTurns(s string, amount float64, r *rng.Source) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch {
		case c == '+' && r.Float64() < amount:
			b.WriteByte('-')
		case c == '-' && r.Float64() < amount:
			b.WriteByte('+')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func insertTurns(s string, amount float64, r *rng.Source) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, c := range s {
		if c == 'F' && r.Float64() < amount {
			if r.Float64() < 0.5 {
				b.WriteByte('+')
			} else {
				b.WriteByte('-')
			}
		}
		b.WriteRune(c)
	}
	return b.String()
}
