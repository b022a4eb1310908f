package disasm

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ParseAsmFile reads a compiler -S listing from disk.
func ParseAsmFile(path string) (*Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("disasm: read asm listing: %w", err)
	}
	return ParseAsmText(string(data))
}

// ParseAsmText parses compiler -S output. Instructions are attributed to the
// most recent non-local label; directives, comments, and local labels
// (.L-style) are skipped.
func ParseAsmText(src string) (*Listing, error) {
	listing := newListing()
	current := ""

	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		// Column-zero lines are labels or directives, never instructions.
		// Local labels keep the current attribution; global labels start a
		// new symbol. clang suffixes labels with a "# @name" comment, so
		// only the first field matters.
		if !startsWithSpace(raw) {
			first := strings.Fields(line)[0]
			if name, ok := strings.CutSuffix(first, ":"); ok {
				if isSymbolish(name) && !isLocalLabel(name) {
					current = name
				}
			}
			continue
		}

		if strings.HasPrefix(line, ".") {
			continue // assembler directive
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, ";") {
			continue
		}
		// Strip a trailing comment: "#" on GNU as, "##" on Mach-O clang.
		// The space after the marker keeps AArch64 immediates like "#1"
		// intact.
		for _, marker := range []string{" ## ", " # "} {
			if idx := strings.Index(line, marker); idx > 0 {
				line = strings.TrimSpace(line[:idx])
				break
			}
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		listing.add(current, Line{
			Text:       line,
			Normalized: strings.Join(fields, " "),
			Mnemonic:   strings.ToLower(fields[0]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("disasm: scanner error: %w", err)
	}
	return listing, nil
}

func startsWithSpace(s string) bool {
	return len(s) > 0 && (s[0] == ' ' || s[0] == '\t')
}

// isLocalLabel recognizes assembler-local labels: .L-style on ELF targets,
// LBB/Ltmp-style on Mach-O.
func isLocalLabel(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, prefix := range []string{"LBB", "Ltmp", "Lfunc", "L."} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func isSymbolish(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		ok := r == '_' || r == '$' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}
