// Package conformance drives identical inputs through two kernel backends
// and reports every divergence. Floating-point results are compared
// bit-for-bit: matching rounding is the whole contract, so tolerance has no
// place here.
package conformance

import (
	"fmt"
	"math"

	"github.com/tinyrange/kernelcmp/internal/kernel"
)

type DotCase struct {
	A, B []float64
}

type MatCase struct {
	A, B [4]float64
}

// Cases is the input sweep for one conformance run.
type Cases struct {
	Factorial []int32
	Dot       []DotCase
	Primes    []uint32
	Matrices  []MatCase
}

// Total returns the number of individual comparisons a run will perform.
func (c Cases) Total() int {
	return len(c.Factorial) + len(c.Dot) + len(c.Primes) + len(c.Matrices)*4
}

// Mismatch records one divergence between the reference and the candidate.
type Mismatch struct {
	Op    string
	Input string
	Ref   string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s(%s): ref=%s got=%s", m.Op, m.Input, m.Ref, m.Got)
}

// DefaultCases covers the documented properties: the factorial table
// including wrapped values and negative inputs, primality over [0,100] plus
// spot values near 2^31 and 2^32-1, and fixed dot/matrix inputs.
func DefaultCases() Cases {
	c := Cases{
		Factorial: []int32{-100, -1, 0, 1, 2, 5, 12, 13, 14, 20, 34},
		Dot: []DotCase{
			{A: []float64{1, 2, 3}, B: []float64{4, 5, 6}},
			{A: nil, B: nil},
			{A: []float64{0.1, 0.2, 0.3}, B: []float64{9.7, -3.1, 2.2}},
			{A: []float64{1e308, 1e-308}, B: []float64{2, 0.5}},
		},
		Matrices: []MatCase{
			{A: [4]float64{1, 0, 0, 1}, B: [4]float64{3.5, -2, 8, 0.25}},
			{A: [4]float64{1, 2, 3, 4}, B: [4]float64{5, 6, 7, 8}},
			{A: [4]float64{0.1, 0.2, 0.3, 0.4}, B: [4]float64{-1.5, 2.5, -3.5, 4.5}},
		},
	}
	for n := uint32(0); n <= 100; n++ {
		c.Primes = append(c.Primes, n)
	}
	c.Primes = append(c.Primes,
		2147483646, 2147483647, 2147483649,
		4294967279, 4294967291, 4294967294, 4294967295,
	)
	return c
}

// Run compares alt against ref over the cases and returns every mismatch.
// A nil return means the backends are equivalent on this sweep.
func Run(ref, alt kernel.Kernel, cases Cases) []Mismatch {
	var mismatches []Mismatch

	for _, n := range cases.Factorial {
		r, g := ref.Factorial(n), alt.Factorial(n)
		if r != g {
			mismatches = append(mismatches, Mismatch{
				Op:    "factorial",
				Input: fmt.Sprintf("%d", n),
				Ref:   fmt.Sprintf("%d", r),
				Got:   fmt.Sprintf("%d", g),
			})
		}
	}

	for _, dc := range cases.Dot {
		r, g := ref.DotProduct(dc.A, dc.B), alt.DotProduct(dc.A, dc.B)
		if math.Float64bits(r) != math.Float64bits(g) {
			mismatches = append(mismatches, Mismatch{
				Op:    "dotProduct",
				Input: fmt.Sprintf("%v·%v", dc.A, dc.B),
				Ref:   formatFloat(r),
				Got:   formatFloat(g),
			})
		}
	}

	for _, n := range cases.Primes {
		r, g := ref.IsPrime(n), alt.IsPrime(n)
		if r != g {
			mismatches = append(mismatches, Mismatch{
				Op:    "isPrime",
				Input: fmt.Sprintf("%d", n),
				Ref:   fmt.Sprintf("%t", r),
				Got:   fmt.Sprintf("%t", g),
			})
		}
	}

	for _, mc := range cases.Matrices {
		r, g := ref.MatMul2x2(mc.A, mc.B), alt.MatMul2x2(mc.A, mc.B)
		for i := range r {
			if math.Float64bits(r[i]) != math.Float64bits(g[i]) {
				mismatches = append(mismatches, Mismatch{
					Op:    "matMul2x2",
					Input: fmt.Sprintf("%v·%v [%d]", mc.A, mc.B, i),
					Ref:   formatFloat(r[i]),
					Got:   formatFloat(g[i]),
				})
			}
		}
	}

	return mismatches
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%v (0x%016x)", f, math.Float64bits(f))
}
