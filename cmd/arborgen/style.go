package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// printer writes aligned key/value summaries, coloured when w is a terminal.
type printer struct {
	out *termenv.Output
}

func newPrinter(w io.Writer) printer {
	return printer{out: termenv.NewOutput(w)}
}

func (p printer) title(s string) {
	fmt.Fprintln(p.out, p.out.String(s).Bold().Foreground(p.out.Color("#34d399")))
}

func (p printer) field(key string, value any) {
	label := p.out.String(fmt.Sprintf("  %-14s", key)).Foreground(p.out.Color("#a78bfa"))
	fmt.Fprintf(p.out, "%s %v\n", label, value)
}

func (p printer) warn(s string) {
	fmt.Fprintln(p.out, p.out.String(s).Foreground(p.out.Color("#fb7185")))
}
