//go:build !(linux || darwin)

package ffi

import "github.com/tinyrange/kernelcmp/internal/kernel"

// Kernel is a placeholder on platforms without dlopen support.
type Kernel struct{}

func Open(path string) (*Kernel, error) {
	return nil, ErrUnsupported
}

func (k *Kernel) Close() error { return nil }

func (k *Kernel) Factorial(n int32) int32 { panic("ffi: unsupported platform") }

func (k *Kernel) DotProduct(a, b []float64) float64 { panic("ffi: unsupported platform") }

func (k *Kernel) IsPrime(n uint32) bool { panic("ffi: unsupported platform") }

func (k *Kernel) MatMul2x2(a, b [4]float64) [4]float64 { panic("ffi: unsupported platform") }

var _ kernel.Kernel = (*Kernel)(nil)
