// Package kernel holds the four reference functions every backend of the
// comparison harness must reproduce bit-for-bit: factorial, dot product,
// trial-division primality, and 2x2 matrix multiply. The functions are kept
// dependency-free on purpose so each backend compiles the same algorithm.
package kernel

import "fmt"

// Kernel is the capability shared by every backend. The native Go
// implementation and the foreign-boundary implementation both satisfy it;
// which one a caller gets is a wiring decision, not a type hierarchy.
type Kernel interface {
	// Factorial computes n! in 32-bit signed arithmetic. Inputs below 2
	// (including negatives) return 1. For n >= 13 the product wraps with
	// two's-complement semantics rather than trapping.
	Factorial(n int32) int32

	// DotProduct accumulates sum(a[i]*b[i]) in index order. Mismatched
	// lengths is a caller error and panics.
	DotProduct(a, b []float64) float64

	// IsPrime reports whether n is prime over the full uint32 domain.
	IsPrime(n uint32) bool

	// MatMul2x2 multiplies two row-major 2x2 matrices into a new value.
	MatMul2x2(a, b [4]float64) [4]float64
}

// Native is the pure Go backend.
type Native struct{}

func (Native) Factorial(n int32) int32 { return Factorial(n) }

func (Native) DotProduct(a, b []float64) float64 { return DotProduct(a, b) }

func (Native) IsPrime(n uint32) bool { return IsPrime(n) }

func (Native) MatMul2x2(a, b [4]float64) [4]float64 { return MatMul2x2(a, b) }

// Factorial computes n! accumulating left-to-right in int32. The n <= 1
// branch deliberately swallows negative inputs and returns 1; changing that
// would break equivalence with the other backends.
func Factorial(n int32) int32 {
	if n <= 1 {
		return 1
	}
	acc := int32(1)
	for i := int32(2); i <= n; i++ {
		acc *= i
	}
	return acc
}

// DotProduct sums a[i]*b[i] in index order. Index order matters: it fixes
// the rounding sequence so every backend lands on the same bits.
func DotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("kernel: dot product length mismatch (%d vs %d)", len(a), len(b)))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// IsPrime trial-divides by 6k±1 candidates. The candidate is widened to
// uint64 before squaring so the loop bound stays correct near the top of the
// uint32 range.
func IsPrime(n uint32) bool {
	if n <= 1 {
		return false
	}
	if n < 4 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for c := uint64(5); c*c <= uint64(n); c += 6 {
		if uint64(n)%c == 0 || uint64(n)%(c+2) == 0 {
			return false
		}
	}
	return true
}

// MatMul2x2 computes the row-major 2x2 product of a and b.
func MatMul2x2(a, b [4]float64) [4]float64 {
	return [4]float64{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
	}
}

var _ Kernel = Native{}
