// Package report renders the measurements the harness exists to produce:
// instruction counts per kernel function across backends and optimization
// levels, and side-by-side listings of matching function bodies.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/tinyrange/kernelcmp/internal/disasm"
)

// Row is one measurement: how many instructions one function body costs in
// one artifact.
type Row struct {
	Function string
	Source   string // artifact the count came from, e.g. "asm" or "objdump"
	Opt      string
	Count    int
}

// Table accumulates rows and renders them grouped by function.
type Table struct {
	rows []Row
}

func (t *Table) Add(row Row) {
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int { return len(t.rows) }

// Render writes the grouped table. With color enabled, headers are bold and
// the smallest body per function is underlined.
func (t *Table) Render(w io.Writer, color bool) {
	rows := append([]Row(nil), t.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Function != rows[j].Function {
			return rows[i].Function < rows[j].Function
		}
		if rows[i].Opt != rows[j].Opt {
			return rows[i].Opt < rows[j].Opt
		}
		return rows[i].Source < rows[j].Source
	})

	minPerFunction := make(map[string]int)
	for _, row := range rows {
		if cur, ok := minPerFunction[row.Function]; !ok || row.Count < cur {
			minPerFunction[row.Function] = row.Count
		}
	}

	header := fmt.Sprintf("%-20s %-10s %-4s %6s %6s", "FUNCTION", "SOURCE", "OPT", "INSNS", "DELTA")
	fmt.Fprintln(w, styled(header, color, ansi.Style{}.Bold()))

	lastFunction := ""
	for _, row := range rows {
		if row.Function != lastFunction && lastFunction != "" {
			fmt.Fprintln(w)
		}
		lastFunction = row.Function

		delta := row.Count - minPerFunction[row.Function]
		deltaText := fmt.Sprintf("%+6d", delta)
		if delta == 0 {
			deltaText = fmt.Sprintf("%6s", "=")
		}
		line := fmt.Sprintf("%-20s %-10s %-4s %6d %s", row.Function, row.Source, row.Opt, row.Count, deltaText)
		if delta == 0 {
			fmt.Fprintln(w, styled(line, color, ansi.Style{}.Underline(true)))
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

// SideBySide writes two listings of the same symbol next to each other, the
// original's "print matching function bodies" view.
func SideBySide(w io.Writer, sym, leftTitle, rightTitle string, left, right []disasm.Line, color bool) {
	const colWidth = 44

	title := fmt.Sprintf("%s: %-*s %s", sym, colWidth-len(sym)-2, leftTitle, rightTitle)
	fmt.Fprintln(w, styled(title, color, ansi.Style{}.Bold()))

	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		lhs, rhs := "", ""
		if i < len(left) {
			lhs = truncate(left[i].Normalized, colWidth-2)
		}
		if i < len(right) {
			rhs = truncate(right[i].Normalized, colWidth-2)
		}
		fmt.Fprintf(w, "%-*s %s\n", colWidth, lhs, rhs)
	}
}

// IsTerminal reports whether f is attached to a terminal, used to decide
// whether Render should emit ANSI styling.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func styled(s string, color bool, style ansi.Style) string {
	if !color {
		return s
	}
	return style.Styled(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
