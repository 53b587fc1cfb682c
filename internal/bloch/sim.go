package bloch

import (
	"fmt"

	"github.com/san-kum/blochsim/internal/mr"
)

// Simulate integrates magnetization m (N, nM, xyz) through the applied
// field tensor beff (N, nM, xyz, nT), one Step per time index in strictly
// increasing order. m is updated in place and returned. Relaxation
// exponentials and the gyro angular step are computed once up front.
//
// Only the final state is produced; intermediate history is not retained,
// so memory stays bounded for any nT. The caller must hold exclusive write
// access to m for the duration of the call.
func Simulate(m, beff []float64, n, nM, nT int, opts Options) ([]float64, error) {
	p, err := NewStepParams(n, nM, opts)
	if err != nil {
		return nil, err
	}
	want := n * nM * 3
	if len(m) != want {
		return nil, fmt.Errorf("%w: magnetization length %d, want %d", mr.ErrShapeMismatch, len(m), want)
	}
	if nT < 0 || len(beff) != want*nT {
		return nil, fmt.Errorf("%w: field tensor length %d, want %d", mr.ErrShapeMismatch, len(beff), want*nT)
	}

	scratch := make([]float64, want)
	bt := make([]float64, want)
	cur := m
	for t := 0; t < nT; t++ {
		GatherField(bt, beff, n*nM, nT, t)
		cur, scratch, err = Step(cur, scratch, bt, p)
		if err != nil {
			return nil, err
		}
	}
	if &cur[0] != &m[0] {
		copy(m, cur)
	}
	return m, nil
}

// GatherField copies time slice t of a (spins, xyz, nT) field tensor into
// the contiguous (spins, xyz) buffer dst.
func GatherField(dst, beff []float64, spins, nT, t int) {
	for i := 0; i < spins; i++ {
		for c := 0; c < 3; c++ {
			dst[i*3+c] = beff[(i*3+c)*nT+t]
		}
	}
}

// SimulateAB applies a precomposed affine propagator to m in place:
// m <- A*m + B, with A (N, nM, 3, 3) row-major and B (N, nM, xyz). This is
// the fast path for field sequences whose net effect has been collapsed
// analytically ahead of time.
func SimulateAB(m, a, b []float64, n, nM int) error {
	want := n * nM * 3
	if len(m) != want || len(b) != want || len(a) != want*3 {
		return fmt.Errorf("%w: propagator lengths m=%d a=%d b=%d for batch (%d, %d)",
			mr.ErrShapeMismatch, len(m), len(a), len(b), n, nM)
	}
	for i := 0; i < n*nM; i++ {
		mi := m[i*3 : i*3+3]
		ai := a[i*9 : i*9+9]
		x := ai[0]*mi[0] + ai[1]*mi[1] + ai[2]*mi[2]
		y := ai[3]*mi[0] + ai[4]*mi[1] + ai[5]*mi[2]
		z := ai[6]*mi[0] + ai[7]*mi[1] + ai[8]*mi[2]
		mi[0] = x + b[i*3]
		mi[1] = y + b[i*3+1]
		mi[2] = z + b[i*3+2]
	}
	return nil
}
