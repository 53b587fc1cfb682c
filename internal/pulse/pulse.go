// Package pulse models RF/gradient excitation waveforms and synthesizes
// the effective-field tensor consumed by the bloch simulator.
package pulse

import (
	"fmt"

	"github.com/san-kum/blochsim/internal/mr"
)

// Pulse is an excitation waveform over nT dwell intervals for a batch of N
// subjects. RF is (N, xy, nT) in Gauss, the xy planes holding the real and
// imaginary channel; Gr is (N, xyz, nT) in Gauss/cm. Exactly one of the two
// may be omitted at construction, in which case it is zero-filled.
type Pulse struct {
	RF   []float64
	Gr   []float64
	Dt   float64 // seconds
	Desc string

	n, nT int
}

// New validates rf and gr against batch size n and length nT and returns
// the pulse. dt <= 0 falls back to mr.Dt0.
func New(rf, gr []float64, n, nT int, dt float64, desc string) (*Pulse, error) {
	if n < 1 || nT < 1 {
		return nil, fmt.Errorf("%w: pulse batch %d, %d samples", mr.ErrShapeMismatch, n, nT)
	}
	if rf == nil && gr == nil {
		return nil, fmt.Errorf("%w: missing both rf and gr", mr.ErrShapeMismatch)
	}
	if rf == nil {
		rf = make([]float64, n*2*nT)
	}
	if gr == nil {
		gr = make([]float64, n*3*nT)
	}
	if len(rf) != n*2*nT {
		return nil, fmt.Errorf("%w: rf length %d, want %d", mr.ErrShapeMismatch, len(rf), n*2*nT)
	}
	if len(gr) != n*3*nT {
		return nil, fmt.Errorf("%w: gr length %d, want %d", mr.ErrShapeMismatch, len(gr), n*3*nT)
	}
	if dt <= 0 {
		dt = mr.Dt0
	}
	if desc == "" {
		desc = "generic pulse"
	}
	return &Pulse{RF: rf, Gr: gr, Dt: dt, Desc: desc, n: n, nT: nT}, nil
}

func (p *Pulse) Batch() int { return p.n }
func (p *Pulse) NT() int    { return p.nT }

// Beff synthesizes the effective-field tensor (N, nM, xyz, nT) in Gauss
// seen by spins at compact locations loc (N, nM, xyz) in cm.
//
// The transverse field is the RF waveform, optionally shaded by the
// complex transmit sensitivity b1 (N, nM, xy); the longitudinal field is
// the gradient projection loc . gr plus the off-resonance term df/gamma.
// df (Hz) and b1 may be nil; gamma (Hz/Gauss) is broadcastable and
// defaults to mr.GammaH when nil.
func (p *Pulse) Beff(loc, df, b1, gamma []float64, n, nM int) ([]float64, error) {
	if n != p.n {
		return nil, fmt.Errorf("%w: spin batch %d, pulse batch %d", mr.ErrShapeMismatch, n, p.n)
	}
	if len(loc) != n*nM*3 {
		return nil, fmt.Errorf("%w: loc length %d, want %d", mr.ErrShapeMismatch, len(loc), n*nM*3)
	}
	if b1 != nil && len(b1) != n*nM*2 {
		return nil, fmt.Errorf("%w: b1 length %d, want %d", mr.ErrShapeMismatch, len(b1), n*nM*2)
	}
	var dfc, gc mr.Coeff
	var err error
	if df != nil {
		if dfc, err = mr.ResolveCoeff(df, n, nM); err != nil {
			return nil, fmt.Errorf("df: %w", err)
		}
		if gamma == nil {
			gamma = []float64{mr.GammaH}
		}
		if gc, err = mr.ResolveCoeff(gamma, n, nM); err != nil {
			return nil, fmt.Errorf("gamma: %w", err)
		}
	}

	nT := p.nT
	out := make([]float64, n*nM*3*nT)
	for b := 0; b < n; b++ {
		rfx := p.RF[(b*2)*nT : (b*2+1)*nT]
		rfy := p.RF[(b*2+1)*nT : (b*2+2)*nT]
		grx := p.Gr[(b*3)*nT : (b*3+1)*nT]
		gry := p.Gr[(b*3+1)*nT : (b*3+2)*nT]
		grz := p.Gr[(b*3+2)*nT : (b*3+3)*nT]
		for m := 0; m < nM; m++ {
			i := b*nM + m
			lx, ly, lz := loc[i*3], loc[i*3+1], loc[i*3+2]
			s1x, s1y := 1.0, 0.0
			if b1 != nil {
				s1x, s1y = b1[i*2], b1[i*2+1]
			}
			dfg := 0.0
			if df != nil {
				dfg = dfc.At(b, m) / gc.At(b, m)
			}
			bx := out[(i*3)*nT : (i*3+1)*nT]
			by := out[(i*3+1)*nT : (i*3+2)*nT]
			bz := out[(i*3+2)*nT : (i*3+3)*nT]
			for t := 0; t < nT; t++ {
				bx[t] = s1x*rfx[t] - s1y*rfy[t]
				by[t] = s1x*rfy[t] + s1y*rfx[t]
				bz[t] = lx*grx[t] + ly*gry[t] + lz*grz[t] + dfg
			}
		}
	}
	return out, nil
}
