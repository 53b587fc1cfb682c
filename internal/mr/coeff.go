package mr

import (
	"fmt"
	"math"
)

type coeffKind uint8

const (
	coeffScalar coeffKind = iota
	coeffBatch
	coeffSpin
)

// Coeff is a physical coefficient broadcast over a (N, nM) spin batch.
// It is resolved once, at one of three granularities: a single scalar, one
// value per batch element, or one value per spin. Lookups never allocate.
type Coeff struct {
	v    []float64
	nM   int
	kind coeffKind
}

// Scalar wraps a single value as a Coeff.
func Scalar(x float64) Coeff {
	return Coeff{v: []float64{x}}
}

// ResolveCoeff classifies v against a batch of n elements with nM spins
// each. Accepted lengths are 1 (scalar), n (per-batch), and n*nM
// (per-spin); anything else is ErrShapeMismatch.
func ResolveCoeff(v []float64, n, nM int) (Coeff, error) {
	switch {
	case len(v) == 1:
		return Coeff{v: v, nM: nM}, nil
	case len(v) == n*nM:
		return Coeff{v: v, nM: nM, kind: coeffSpin}, nil
	case len(v) == n:
		return Coeff{v: v, nM: nM, kind: coeffBatch}, nil
	}
	return Coeff{}, fmt.Errorf("%w: coefficient length %d not broadcastable to (%d, %d)",
		ErrShapeMismatch, len(v), n, nM)
}

// At returns the coefficient value for spin m of batch element b.
func (c Coeff) At(b, m int) float64 {
	switch c.kind {
	case coeffSpin:
		return c.v[b*c.nM+m]
	case coeffBatch:
		return c.v[b]
	default:
		return c.v[0]
	}
}

// IsScalar reports whether the coefficient holds a single value.
func (c Coeff) IsScalar() bool { return c.kind == coeffScalar }

// Map returns a new Coeff with f applied to every stored value, preserving
// granularity.
func (c Coeff) Map(f func(float64) float64) Coeff {
	out := Coeff{v: make([]float64, len(c.v)), nM: c.nM, kind: c.kind}
	for i, x := range c.v {
		out.v[i] = f(x)
	}
	return out
}

// CombineExp returns exp(-num/den) materialized at the coarsest granularity
// able to represent both operands. Used for relaxation exponentials, which
// are computed once per simulation, not per step.
func CombineExp(num, den Coeff, n, nM int) Coeff {
	if num.IsScalar() && den.IsScalar() {
		return Scalar(math.Exp(-num.v[0] / den.v[0]))
	}
	if num.kind != coeffSpin && den.kind != coeffSpin {
		v := make([]float64, n)
		for b := 0; b < n; b++ {
			v[b] = math.Exp(-num.At(b, 0) / den.At(b, 0))
		}
		return Coeff{v: v, nM: nM, kind: coeffBatch}
	}
	v := make([]float64, n*nM)
	for b := 0; b < n; b++ {
		for m := 0; m < nM; m++ {
			v[b*nM+m] = math.Exp(-num.At(b, m) / den.At(b, m))
		}
	}
	return Coeff{v: v, nM: nM, kind: coeffSpin}
}

// CombineMul returns num*den materialized at the coarsest sufficient
// granularity.
func CombineMul(a, b Coeff, n, nM int) Coeff {
	if a.IsScalar() && b.IsScalar() {
		return Scalar(a.v[0] * b.v[0])
	}
	if a.kind != coeffSpin && b.kind != coeffSpin {
		v := make([]float64, n)
		for i := 0; i < n; i++ {
			v[i] = a.At(i, 0) * b.At(i, 0)
		}
		return Coeff{v: v, nM: nM, kind: coeffBatch}
	}
	v := make([]float64, n*nM)
	for i := 0; i < n; i++ {
		for m := 0; m < nM; m++ {
			v[i*nM+m] = a.At(i, m) * b.At(i, m)
		}
	}
	return Coeff{v: v, nM: nM, kind: coeffSpin}
}
