//go:build linux || darwin

package ffi

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/tinyrange/kernelcmp/internal/kernel"
)

// Kernel is the foreign-boundary backend. It holds the dlopen handle and the
// registered entry points for the four kernel functions.
type Kernel struct {
	handle uintptr

	factorial  func(n int32) int32
	dotProduct func(a, b unsafe.Pointer, n int32) float64
	isPrime    func(n uint32) int32
	matMul     func(a, b, out unsafe.Pointer)
}

// Open loads the shared object at path. The object must export the kc_
// symbols declared in csrc's kernel.h; a missing symbol panics, since that
// means the object was not built from the embedded kernel source.
func Open(path string) (*Kernel, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("ffi: dlopen %s: %w", path, err)
	}

	k := &Kernel{handle: handle}
	purego.RegisterLibFunc(&k.factorial, handle, "kc_factorial")
	purego.RegisterLibFunc(&k.dotProduct, handle, "kc_dot_product")
	purego.RegisterLibFunc(&k.isPrime, handle, "kc_is_prime")
	purego.RegisterLibFunc(&k.matMul, handle, "kc_mat_mul_2x2")
	return k, nil
}

// Close releases the shared object. The Kernel must not be used afterwards.
func (k *Kernel) Close() error {
	if k.handle == 0 {
		return nil
	}
	err := purego.Dlclose(k.handle)
	k.handle = 0
	if err != nil {
		return fmt.Errorf("ffi: dlclose: %w", err)
	}
	return nil
}

func (k *Kernel) Factorial(n int32) int32 {
	return k.factorial(n)
}

func (k *Kernel) DotProduct(a, b []float64) float64 {
	// The length precondition is enforced on this side of the boundary; the
	// callee only ever sees a single trusted length.
	if len(a) != len(b) {
		panic(fmt.Sprintf("ffi: dot product length mismatch (%d vs %d)", len(a), len(b)))
	}
	if len(a) == 0 {
		return k.dotProduct(nil, nil, 0)
	}
	return k.dotProduct(unsafe.Pointer(&a[0]), unsafe.Pointer(&b[0]), int32(len(a)))
}

func (k *Kernel) IsPrime(n uint32) bool {
	return k.isPrime(n) != 0
}

func (k *Kernel) MatMul2x2(a, b [4]float64) [4]float64 {
	var out [4]float64
	k.matMul(unsafe.Pointer(&a[0]), unsafe.Pointer(&b[0]), unsafe.Pointer(&out[0]))
	return out
}

var _ kernel.Kernel = (*Kernel)(nil)
