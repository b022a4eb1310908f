// Package disasm turns compiled kernel artifacts back into per-function
// instruction listings so backends can be measured against each other. It
// understands two shapes of input: objdump output for a built object and the
// compiler's own -S text.
package disasm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoObjdump is returned when no objdump binary is on PATH.
var ErrNoObjdump = errors.New("disasm: objdump not found")

// Line is a single instruction from a listing.
type Line struct {
	Text       string
	Normalized string
	Mnemonic   string
}

// Contains reports whether the normalized instruction text contains substr.
func (l Line) Contains(substr string) bool {
	return strings.Contains(l.Normalized, substr)
}

// Listing is a set of per-symbol instruction runs in file order.
type Listing struct {
	order []string
	funcs map[string][]Line
}

// Symbols returns the symbol names in the order they appeared.
func (l *Listing) Symbols() []string {
	return append([]string(nil), l.order...)
}

// Lines returns the instructions attributed to sym, or nil.
func (l *Listing) Lines(sym string) []Line {
	return l.funcs[sym]
}

// Count returns the instruction count for sym.
func (l *Listing) Count(sym string) int {
	return len(l.funcs[sym])
}

// Resolve returns the listing's name for sym, tolerating the Mach-O leading
// underscore. Empty string when the symbol is absent.
func (l *Listing) Resolve(sym string) string {
	if _, ok := l.funcs[sym]; ok {
		return sym
	}
	if _, ok := l.funcs["_"+sym]; ok {
		return "_" + sym
	}
	return ""
}

// Histogram returns mnemonic frequencies for sym.
func (l *Listing) Histogram(sym string) map[string]int {
	hist := make(map[string]int)
	for _, line := range l.funcs[sym] {
		hist[line.Mnemonic]++
	}
	return hist
}

func (l *Listing) add(sym string, line Line) {
	if sym == "" {
		return
	}
	if _, ok := l.funcs[sym]; !ok {
		l.order = append(l.order, sym)
	}
	l.funcs[sym] = append(l.funcs[sym], line)
}

func newListing() *Listing {
	return &Listing{funcs: make(map[string][]Line)}
}

// Disassemble runs objdump -d on the object at path and parses the output
// into per-symbol listings.
func Disassemble(ctx context.Context, path string) (*Listing, error) {
	tool, err := exec.LookPath("objdump")
	if err != nil {
		return nil, ErrNoObjdump
	}

	cmd := exec.CommandContext(ctx, tool, "-d", "--no-show-raw-insn", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("disasm: objdump %s: %w\n%s", path, err, out)
	}

	listing, err := ParseObjdump(string(out))
	if err != nil {
		return nil, err
	}
	if len(listing.order) == 0 {
		return nil, fmt.Errorf("disasm: objdump produced no instructions for %s", path)
	}
	return listing, nil
}

// ParseObjdump parses objdump -d output, tracking symbol boundaries of the
// form "0000000000001119 <kc_factorial>:".
func ParseObjdump(out string) (*Listing, error) {
	listing := newListing()
	current := ""

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()

		if sym, ok := parseSymbolHeader(line); ok {
			current = sym
			continue
		}

		colon := strings.IndexRune(line, ':')
		if colon == -1 {
			continue
		}
		text := strings.TrimSpace(line[colon+1:])
		if text == "" || strings.HasPrefix(text, "<") {
			continue
		}
		if strings.HasPrefix(text, ".") || strings.HasPrefix(text, "file format") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		listing.add(current, Line{
			Text:       text,
			Normalized: strings.Join(fields, " "),
			Mnemonic:   strings.ToLower(fields[0]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("disasm: scanner error: %w", err)
	}
	return listing, nil
}

// parseSymbolHeader matches "<hexaddr> <name>:".
func parseSymbolHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, ">:") {
		return "", false
	}
	open := strings.IndexRune(trimmed, '<')
	if open <= 0 {
		return "", false
	}
	addr := strings.TrimSpace(trimmed[:open])
	if addr == "" {
		return "", false
	}
	for _, r := range addr {
		if !isHexDigit(r) {
			return "", false
		}
	}
	name := trimmed[open+1 : len(trimmed)-2]
	if name == "" {
		return "", false
	}
	return name, true
}

func isHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f':
		return true
	case r >= 'A' && r <= 'F':
		return true
	default:
		return false
	}
}
