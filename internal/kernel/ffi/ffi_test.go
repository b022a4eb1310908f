//go:build linux || darwin

package ffi_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tinyrange/kernelcmp/internal/conformance"
	"github.com/tinyrange/kernelcmp/internal/kernel"
	"github.com/tinyrange/kernelcmp/internal/kernel/csrc"
	"github.com/tinyrange/kernelcmp/internal/kernel/ffi"
	"github.com/tinyrange/kernelcmp/internal/toolchain"
)

// buildKernel compiles the embedded C kernel into a temp shared object,
// skipping when the host has no C compiler.
func buildKernel(t *testing.T) *ffi.Kernel {
	t.Helper()

	c, err := toolchain.Probe(context.Background())
	if errors.Is(err, toolchain.ErrNoCompiler) {
		t.Skip("no C compiler on PATH")
	}
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	dir := t.TempDir()
	srcPath, err := csrc.WriteTo(dir)
	if err != nil {
		t.Fatalf("stage kernel source: %v", err)
	}
	libPath := filepath.Join(dir, toolchain.SharedObjectName())
	if err := c.BuildShared(context.Background(), srcPath, libPath); err != nil {
		t.Fatalf("BuildShared: %v", err)
	}

	k, err := ffi.Open(libPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := k.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return k
}

func TestOpenMissingLibrary(t *testing.T) {
	if _, err := ffi.Open(filepath.Join(t.TempDir(), "nope.so")); err == nil {
		t.Fatal("expected error for missing library")
	}
}

func TestForeignKernelMatchesNative(t *testing.T) {
	k := buildKernel(t)

	mismatches := conformance.Run(kernel.Native{}, k, conformance.DefaultCases())
	for _, m := range mismatches {
		t.Errorf("divergence: %s", m)
	}
}

func TestForeignFactorialWraps(t *testing.T) {
	k := buildKernel(t)

	if got := k.Factorial(13); got != 1932053504 {
		t.Fatalf("Factorial(13) = %d, want 1932053504", got)
	}
	if got := k.Factorial(-7); got != 1 {
		t.Fatalf("Factorial(-7) = %d, want 1", got)
	}
}

func TestForeignDotProductMismatchPanics(t *testing.T) {
	k := buildKernel(t)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched lengths")
		}
	}()
	k.DotProduct([]float64{1, 2}, []float64{1})
}

func TestForeignEmptyDotProduct(t *testing.T) {
	k := buildKernel(t)

	if got := k.DotProduct(nil, nil); got != 0.0 {
		t.Fatalf("empty dot product = %v, want 0.0", got)
	}
}
