package spin

import (
	"math"

	"github.com/san-kum/blochsim/internal/grid"
	"github.com/san-kum/blochsim/internal/mr"
	"github.com/san-kum/blochsim/internal/pulse"
)

// DemoPulse returns a single-subject 512-sample excitation: a circularly
// swept RF envelope over constant x/y gradients and a tanh-like z ramp.
// Used by the CLI and as a convenient fixture.
func DemoPulse() *pulse.Pulse {
	const n, nT = 1, 512
	rf := make([]float64, n*2*nT)
	gr := make([]float64, n*3*nT)
	for t := 0; t < nT; t++ {
		ph := float64(t) / nT * 2 * math.Pi
		rf[t] = 10 * math.Cos(ph)
		rf[nT+t] = 10 * math.Sin(ph)
		gr[t] = 1
		gr[nT+t] = 1
		gr[2*nT+t] = 10 * math.Atan(float64(t-nT/2)) / math.Pi
	}
	p, err := pulse.New(rf, gr, n, nT, mr.Dt0, "demo pulse")
	if err != nil {
		panic(err)
	}
	return p
}

// DemoCube returns a single-subject 3x3x3 cube masked to a plus-shaped
// cross, 3 cm field of view offset 1 cm along z, with T1 = 1 s,
// T2 = 40 ms, and a linear off-resonance ramp over x+y.
func DemoCube() *Cube {
	dims := []int{3, 3, 3}
	mask := make([]bool, 27)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				if i == 1 || j == 1 {
					mask[(i*3+j)*3+k] = true
				}
			}
		}
	}
	im, err := grid.New(1, dims, mask)
	if err != nil {
		panic(err)
	}
	c, err := NewCube(im, []float64{3, 3, 3})
	if err != nil {
		panic(err)
	}
	if err := c.SetOffset([]float64{0, 0, 1}); err != nil {
		panic(err)
	}
	pop := c.Population()
	if err := pop.SetT1Compact([]float64{1}); err != nil {
		panic(err)
	}
	if err := pop.SetT2Compact([]float64{4e-2}); err != nil {
		panic(err)
	}

	loc := c.LocCompact()
	df := make([]float64, c.NM())
	for m := 0; m < c.NM(); m++ {
		df[m] = -(loc[m*3] + loc[m*3+1]) * mr.GammaH
	}
	if err := c.SetDfCompact(df); err != nil {
		panic(err)
	}
	return c
}
