package disasm

import (
	"strings"
	"testing"
)

const sampleObjdump = `
libkernel.so:     file format elf64-x86-64


Disassembly of section .text:

0000000000001119 <kc_factorial>:
    1119:	endbr64
    111d:	mov    $0x1,%eax
    1122:	cmp    $0x1,%edi
    1125:	jle    113b <kc_factorial+0x22>
    1127:	mov    $0x2,%edx
    112c:	imul   %edx,%eax
    112f:	add    $0x1,%edx
    1132:	cmp    %edx,%edi
    1135:	jge    112c <kc_factorial+0x13>
    113b:	ret

000000000000113c <kc_is_prime>:
    113c:	endbr64
    1140:	cmp    $0x1,%edi
    1143:	jbe    1180 <kc_is_prime+0x44>
    1145:	ret
`

func TestParseObjdump(t *testing.T) {
	listing, err := ParseObjdump(sampleObjdump)
	if err != nil {
		t.Fatalf("ParseObjdump: %v", err)
	}

	syms := listing.Symbols()
	if len(syms) != 2 || syms[0] != "kc_factorial" || syms[1] != "kc_is_prime" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
	if got := listing.Count("kc_factorial"); got != 10 {
		t.Errorf("kc_factorial count = %d, want 10", got)
	}
	if got := listing.Count("kc_is_prime"); got != 4 {
		t.Errorf("kc_is_prime count = %d, want 4", got)
	}

	hist := listing.Histogram("kc_factorial")
	if hist["cmp"] != 2 {
		t.Errorf("cmp histogram = %d, want 2", hist["cmp"])
	}
	lines := listing.Lines("kc_factorial")
	if lines[0].Mnemonic != "endbr64" {
		t.Errorf("first mnemonic = %q, want endbr64", lines[0].Mnemonic)
	}
	if !lines[1].Contains("$0x1,%eax") {
		t.Errorf("unexpected normalized text %q", lines[1].Normalized)
	}
}

const sampleAsm = `	.file	"kernel.c"
	.text
	.globl	kc_factorial
	.type	kc_factorial, @function
kc_factorial:
	movl	$1, %eax
	cmpl	$1, %edi
	jle	.L1
	movl	$2, %edx
.L3:
	imull	%edx, %eax
	addl	$1, %edx
	cmpl	%edx, %edi
	jge	.L3
.L1:
	ret
	.size	kc_factorial, .-kc_factorial
	.globl	kc_is_prime
kc_is_prime:
	cmpl	$1, %edi
	jbe	.L9
	ret
.L9:
	xorl	%eax, %eax
	ret
`

func TestParseAsmText(t *testing.T) {
	listing, err := ParseAsmText(sampleAsm)
	if err != nil {
		t.Fatalf("ParseAsmText: %v", err)
	}

	syms := listing.Symbols()
	if len(syms) != 2 || syms[0] != "kc_factorial" || syms[1] != "kc_is_prime" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
	if got := listing.Count("kc_factorial"); got != 9 {
		t.Errorf("kc_factorial count = %d, want 9", got)
	}
	if got := listing.Count("kc_is_prime"); got != 5 {
		t.Errorf("kc_is_prime count = %d, want 5", got)
	}
	if hist := listing.Histogram("kc_is_prime"); hist["ret"] != 2 {
		t.Errorf("ret histogram = %d, want 2", hist["ret"])
	}
}

const sampleClangAsm = `	.section	__TEXT,__text,regular,pure_instructions
	.build_version macos, 14, 0
	.globl	_kc_factorial                   ## -- Begin function kc_factorial
	.p2align	4, 0x90
_kc_factorial:                          ## @kc_factorial
	pushq	%rbp
	movq	%rsp, %rbp
	movl	$1, %eax
	cmpl	$1, %edi
	jle	LBB0_2
	movl	$2, %ecx
LBB0_1:                                 ## =>This Inner Loop Header: Depth=1
	imull	%ecx, %eax
	incl	%ecx
	cmpl	%edi, %ecx
	jle	LBB0_1
LBB0_2:
	popq	%rbp
	retq
                                        ## -- End function
	.globl	_kc_is_prime                    ## -- Begin function kc_is_prime
_kc_is_prime:                           ## @kc_is_prime
	xorl	%eax, %eax
	cmpl	$1, %edi
	jbe	LBB1_1
	movl	$1, %eax                        ## imm = 0x1
LBB1_1:
	retq
`

func TestParseClangAsmText(t *testing.T) {
	listing, err := ParseAsmText(sampleClangAsm)
	if err != nil {
		t.Fatalf("ParseAsmText: %v", err)
	}

	syms := listing.Symbols()
	if len(syms) != 2 || syms[0] != "_kc_factorial" || syms[1] != "_kc_is_prime" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
	// Resolve tolerates the Mach-O underscore prefix.
	if got := listing.Resolve("kc_factorial"); got != "_kc_factorial" {
		t.Fatalf("Resolve(kc_factorial) = %q", got)
	}
	if got := listing.Count("_kc_factorial"); got != 12 {
		t.Errorf("_kc_factorial count = %d, want 12", got)
	}
	if got := listing.Count("_kc_is_prime"); got != 5 {
		t.Errorf("_kc_is_prime count = %d, want 5", got)
	}
	// LBB locals must not open new symbols, and "## ..." trailers must be
	// stripped from instruction text.
	for _, sym := range syms {
		for _, line := range listing.Lines(sym) {
			if strings.HasPrefix(line.Mnemonic, "lbb") {
				t.Errorf("local label leaked as instruction: %q", line.Text)
			}
			if strings.Contains(line.Normalized, "#") {
				t.Errorf("comment leaked into instruction: %q", line.Normalized)
			}
		}
	}
	hist := listing.Histogram("_kc_is_prime")
	if hist["movl"] != 1 {
		t.Errorf("movl histogram = %d, want 1", hist["movl"])
	}
}

func TestParseSymbolHeader(t *testing.T) {
	cases := []struct {
		line string
		sym  string
		ok   bool
	}{
		{"0000000000001119 <kc_factorial>:", "kc_factorial", true},
		{"1119 <x>:", "x", true},
		{"Disassembly of section .text:", "", false},
		{"    1125:\tjle 113b <kc_factorial+0x22>", "", false},
		{"<unnamed>:", "", false},
	}
	for _, tc := range cases {
		sym, ok := parseSymbolHeader(tc.line)
		if ok != tc.ok || sym != tc.sym {
			t.Errorf("parseSymbolHeader(%q) = %q, %v; want %q, %v", tc.line, sym, ok, tc.sym, tc.ok)
		}
	}
}
