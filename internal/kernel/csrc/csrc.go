// Package csrc carries the C rendition of the numeric kernel. The toolchain
// package stages it into a build directory and compiles it; keeping the
// source embedded means the harness binary is self-contained.
package csrc

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed kernel.c
var kernelC []byte

//go:embed kernel.h
var kernelH []byte

const (
	SourceName = "kernel.c"
	HeaderName = "kernel.h"
)

// Source returns a copy of the C translation unit.
func Source() []byte {
	return append([]byte(nil), kernelC...)
}

// Header returns a copy of the public header.
func Header() []byte {
	return append([]byte(nil), kernelH...)
}

// WriteTo stages kernel.c and kernel.h into dir and returns the path of the
// translation unit.
func WriteTo(dir string) (string, error) {
	srcPath := filepath.Join(dir, SourceName)
	if err := os.WriteFile(srcPath, kernelC, 0o644); err != nil {
		return "", fmt.Errorf("csrc: write %s: %w", SourceName, err)
	}
	if err := os.WriteFile(filepath.Join(dir, HeaderName), kernelH, 0o644); err != nil {
		return "", fmt.Errorf("csrc: write %s: %w", HeaderName, err)
	}
	return srcPath, nil
}

// Symbols lists the exported function names in a stable order. The disasm
// package uses this to pick function bodies out of listings.
func Symbols() []string {
	return []string{"kc_factorial", "kc_dot_product", "kc_is_prime", "kc_mat_mul_2x2"}
}
