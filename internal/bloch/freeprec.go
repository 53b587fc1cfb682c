package bloch

import (
	"fmt"
	"math"

	"github.com/san-kum/blochsim/internal/mr"
)

// FreePrecess applies free precession of duration dur to magnetization m
// (N, nM, xyz) in closed form, without stepping: off-resonance df (Hz)
// rotates the transverse plane by phi = -2*pi*df*dur (positive df dephases
// clockwise), then T1/T2 relaxation is evaluated once for the whole
// duration. dur, df, T1, and T2 are broadcastable as scalar, per-batch, or
// per-spin; df and the relaxation pair may be nil to skip their effect, but
// T1 and T2 must be supplied together or not at all.
func FreePrecess(m []float64, n, nM int, dur, t1, t2, df []float64) error {
	want := n * nM * 3
	if len(m) != want {
		return fmt.Errorf("%w: magnetization length %d, want %d", mr.ErrShapeMismatch, len(m), want)
	}
	if (t1 == nil) != (t2 == nil) {
		return mr.ErrInconsistentRelaxation
	}
	durc, err := mr.ResolveCoeff(dur, n, nM)
	if err != nil {
		return fmt.Errorf("dur: %w", err)
	}

	if df != nil {
		dfc, err := mr.ResolveCoeff(df, n, nM)
		if err != nil {
			return fmt.Errorf("df: %w", err)
		}
		for b := 0; b < n; b++ {
			for mm := 0; mm < nM; mm++ {
				i := (b*nM + mm) * 3
				phi := -2 * math.Pi * dfc.At(b, mm) * durc.At(b, mm)
				c, s := math.Cos(phi), math.Sin(phi)
				mx, my := m[i], m[i+1]
				m[i] = c*mx - s*my
				m[i+1] = s*mx + c*my
			}
		}
	}

	if t1 != nil {
		t1c, err := mr.ResolveCoeff(t1, n, nM)
		if err != nil {
			return fmt.Errorf("T1: %w", err)
		}
		t2c, err := mr.ResolveCoeff(t2, n, nM)
		if err != nil {
			return fmt.Errorf("T2: %w", err)
		}
		e1c := mr.CombineExp(durc, t1c, n, nM)
		e2c := mr.CombineExp(durc, t2c, n, nM)
		for b := 0; b < n; b++ {
			for mm := 0; mm < nM; mm++ {
				i := (b*nM + mm) * 3
				e1, e2 := e1c.At(b, mm), e2c.At(b, mm)
				m[i] *= e2
				m[i+1] *= e2
				m[i+2] = e1*m[i+2] + 1 - e1
			}
		}
	}
	return nil
}
