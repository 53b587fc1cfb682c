package bloch

import (
	"fmt"
	"math"

	"github.com/san-kum/blochsim/internal/mr"
)

// Options carries the physical parameters of a simulation. Each slice is
// broadcastable over the (N, nM) batch: length 1, N, or N*nM. Nil T1/T2
// disable the corresponding relaxation term; nil Gamma and Dt fall back to
// mr.GammaH and mr.Dt0.
type Options struct {
	T1    []float64 // seconds
	T2    []float64 // seconds
	Gamma []float64 // Hz/Gauss
	Dt    []float64 // seconds
}

// StepParams holds the per-step coefficients of a simulation, resolved and
// exponentiated once so the inner loop never recomputes them.
type StepParams struct {
	n, nM int
	e1    mr.Coeff // exp(-dt/T1)
	e1m1  mr.Coeff // e1 - 1
	e2    mr.Coeff // exp(-dt/T2)
	gdt   mr.Coeff // gamma*2*pi*dt, rad/Gauss
}

// NewStepParams resolves opts against a batch of n elements with nM spins.
// Broadcast shape violations surface here, before any stepping happens.
func NewStepParams(n, nM int, opts Options) (*StepParams, error) {
	if n < 1 || nM < 1 {
		return nil, fmt.Errorf("%w: batch (%d, %d)", mr.ErrShapeMismatch, n, nM)
	}
	dt := opts.Dt
	if dt == nil {
		dt = []float64{mr.Dt0}
	}
	gamma := opts.Gamma
	if gamma == nil {
		gamma = []float64{mr.GammaH}
	}
	dtc, err := mr.ResolveCoeff(dt, n, nM)
	if err != nil {
		return nil, fmt.Errorf("dt: %w", err)
	}
	gc, err := mr.ResolveCoeff(gamma, n, nM)
	if err != nil {
		return nil, fmt.Errorf("gamma: %w", err)
	}

	p := &StepParams{
		n:    n,
		nM:   nM,
		e1:   mr.Scalar(1),
		e2:   mr.Scalar(1),
		e1m1: mr.Scalar(0),
		gdt:  mr.CombineMul(gc, dtc, n, nM).Map(func(x float64) float64 { return 2 * math.Pi * x }),
	}
	if opts.T1 != nil {
		t1c, err := mr.ResolveCoeff(opts.T1, n, nM)
		if err != nil {
			return nil, fmt.Errorf("T1: %w", err)
		}
		p.e1 = mr.CombineExp(dtc, t1c, n, nM)
		p.e1m1 = p.e1.Map(func(x float64) float64 { return x - 1 })
	}
	if opts.T2 != nil {
		t2c, err := mr.ResolveCoeff(opts.T2, n, nM)
		if err != nil {
			return nil, fmt.Errorf("T2: %w", err)
		}
		p.e2 = mr.CombineExp(dtc, t2c, n, nM)
	}
	return p, nil
}

// Step advances magnetization by one dwell interval. cur holds the current
// (N, nM, xyz) state, scratch is an equally sized work buffer that must not
// alias cur, and b is the applied field (N, nM, xyz) in Gauss.
//
// The returned out buffer holds the updated state and spare the buffer now
// free for reuse; callers driving a loop swap the two instead of
// allocating. When every rotation angle in the batch is exactly zero the
// rotation is skipped outright (out == cur), which also keeps the
// undefined zero-field rotation axis from producing NaNs.
func Step(cur, scratch, b []float64, p *StepParams) (out, spare []float64, err error) {
	want := p.n * p.nM * 3
	if len(cur) != want || len(scratch) != want || len(b) != want {
		return nil, nil, fmt.Errorf("%w: step buffers %d/%d/%d, want %d",
			mr.ErrShapeMismatch, len(cur), len(scratch), len(b), want)
	}

	rotates := false
	for bb := 0; bb < p.n && !rotates; bb++ {
		for m := 0; m < p.nM; m++ {
			i := (bb*p.nM + m) * 3
			if (b[i] != 0 || b[i+1] != 0 || b[i+2] != 0) && p.gdt.At(bb, m) != 0 {
				rotates = true
				break
			}
		}
	}

	out, spare = cur, scratch
	if rotates {
		rotate(scratch, cur, b, p)
		out, spare = scratch, cur
	}
	relax(out, p)
	return out, spare, nil
}

// rotate applies the Rodrigues rotation induced by field b to src,
// writing into dst. Spins seeing zero field pass through unchanged.
func rotate(dst, src, b []float64, p *StepParams) {
	for bb := 0; bb < p.n; bb++ {
		for m := 0; m < p.nM; m++ {
			i := (bb*p.nM + m) * 3
			bx, by, bz := b[i], b[i+1], b[i+2]
			bn := math.Sqrt(bx*bx + by*by + bz*bz)
			phi := -p.gdt.At(bb, m) * bn
			mx, my, mz := src[i], src[i+1], src[i+2]
			if phi == 0 {
				dst[i], dst[i+1], dst[i+2] = mx, my, mz
				continue
			}
			ux, uy, uz := bx/bn, by/bn, bz/bn
			c, s := math.Cos(phi), math.Sin(phi)
			k := (1 - c) * (ux*mx + uy*my + uz*mz)
			dst[i] = c*mx + s*(uy*mz-uz*my) + k*ux
			dst[i+1] = c*my + s*(uz*mx-ux*mz) + k*uy
			dst[i+2] = c*mz + s*(ux*my-uy*mx) + k*uz
		}
	}
}

// relax applies the exponential relaxation law in place: transverse
// components decay by E2, the longitudinal component recovers toward
// equilibrium as E1*z - (E1-1).
func relax(m []float64, p *StepParams) {
	for bb := 0; bb < p.n; bb++ {
		for mm := 0; mm < p.nM; mm++ {
			i := (bb*p.nM + mm) * 3
			e2 := p.e2.At(bb, mm)
			m[i] *= e2
			m[i+1] *= e2
			m[i+2] = p.e1.At(bb, mm)*m[i+2] - p.e1m1.At(bb, mm)
		}
	}
}
