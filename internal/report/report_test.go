package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tinyrange/kernelcmp/internal/disasm"
)

func TestRenderPlain(t *testing.T) {
	var table Table
	table.Add(Row{Function: "kc_factorial", Source: "asm", Opt: "O0", Count: 24})
	table.Add(Row{Function: "kc_factorial", Source: "asm", Opt: "O2", Count: 10})
	table.Add(Row{Function: "kc_is_prime", Source: "objdump", Opt: "O2", Count: 31})

	var buf bytes.Buffer
	table.Render(&buf, false)
	out := buf.String()

	if strings.Contains(out, "\x1b[") {
		t.Fatal("plain render emitted ANSI sequences")
	}
	if !strings.Contains(out, "FUNCTION") {
		t.Fatal("missing header")
	}
	if !strings.Contains(out, "kc_factorial") || !strings.Contains(out, "kc_is_prime") {
		t.Fatalf("missing rows:\n%s", out)
	}
	// O2 is the minimum for kc_factorial; its delta column collapses to "=".
	factorialO0 := lineContaining(t, out, "O0")
	if !strings.Contains(factorialO0, "+14") {
		t.Fatalf("expected +14 delta for O0 row, got %q", factorialO0)
	}
}

func TestRenderColorEmitsANSI(t *testing.T) {
	var table Table
	table.Add(Row{Function: "kc_factorial", Source: "asm", Opt: "O0", Count: 24})

	var buf bytes.Buffer
	table.Render(&buf, true)
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("color render emitted no ANSI sequences")
	}
}

func TestSideBySide(t *testing.T) {
	left := []disasm.Line{
		{Normalized: "mov $0x1,%eax", Mnemonic: "mov"},
		{Normalized: "ret", Mnemonic: "ret"},
	}
	right := []disasm.Line{
		{Normalized: "movl $1, %eax", Mnemonic: "movl"},
	}

	var buf bytes.Buffer
	SideBySide(&buf, "kc_factorial", "objdump", "gcc -S", left, right, false)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected title plus 2 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "mov $0x1,%eax") || !strings.Contains(lines[1], "movl $1, %eax") {
		t.Fatalf("first row mispaired: %q", lines[1])
	}
	if !strings.Contains(lines[2], "ret") {
		t.Fatalf("unpaired tail row missing: %q", lines[2])
	}
}

func lineContaining(t *testing.T, out, substr string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("no line containing %q in:\n%s", substr, out)
	return ""
}
