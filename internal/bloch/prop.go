package bloch

import (
	"fmt"
	"math"

	"github.com/san-kum/blochsim/internal/mr"
)

// Propagator collapses the field sequence beff (N, nM, xyz, nT) together
// with relaxation into one affine map per spin, so that SimulateAB(m, A, B)
// reproduces Simulate(m, beff) for any starting magnetization. A is
// (N, nM, 3, 3) row-major, B is (N, nM, xyz).
func Propagator(beff []float64, n, nM, nT int, opts Options) (a, b []float64, err error) {
	p, err := NewStepParams(n, nM, opts)
	if err != nil {
		return nil, nil, err
	}
	if nT < 0 || len(beff) != n*nM*3*nT {
		return nil, nil, fmt.Errorf("%w: field tensor length %d, want %d", mr.ErrShapeMismatch, len(beff), n*nM*3*nT)
	}

	a = make([]float64, n*nM*9)
	b = make([]float64, n*nM*3)
	var r, tmp [9]float64
	var tv [3]float64
	for bb := 0; bb < n; bb++ {
		for m := 0; m < nM; m++ {
			i := bb*nM + m
			ai := a[i*9 : i*9+9]
			bi := b[i*3 : i*3+3]
			ai[0], ai[4], ai[8] = 1, 1, 1
			e1, e2 := p.e1.At(bb, m), p.e2.At(bb, m)
			gdt := p.gdt.At(bb, m)
			for t := 0; t < nT; t++ {
				bx := beff[(i*3)*nT+t]
				by := beff[(i*3+1)*nT+t]
				bz := beff[(i*3+2)*nT+t]
				if rotationMatrix(&r, bx, by, bz, gdt) {
					mat3Mul(&tmp, &r, ai)
					copy(ai, tmp[:])
					mat3Vec(&tv, &r, bi)
					copy(bi, tv[:])
				}
				// Relaxation scales the xy rows by E2 and the z row by E1,
				// then shifts z toward equilibrium.
				for c := 0; c < 3; c++ {
					ai[c] *= e2
					ai[3+c] *= e2
					ai[6+c] *= e1
				}
				bi[0] *= e2
				bi[1] *= e2
				bi[2] = e1*bi[2] + (1 - e1)
			}
		}
	}
	return a, b, nil
}

// rotationMatrix fills r with the Rodrigues rotation induced by field
// (bx, by, bz) and gyro angular step gdt. Returns false, leaving r
// untouched, when the rotation angle is exactly zero.
func rotationMatrix(r *[9]float64, bx, by, bz, gdt float64) bool {
	bn := math.Sqrt(bx*bx + by*by + bz*bz)
	phi := -gdt * bn
	if phi == 0 {
		return false
	}
	ux, uy, uz := bx/bn, by/bn, bz/bn
	c, s := math.Cos(phi), math.Sin(phi)
	k := 1 - c
	r[0] = c + k*ux*ux
	r[1] = k*ux*uy - s*uz
	r[2] = k*ux*uz + s*uy
	r[3] = k*uy*ux + s*uz
	r[4] = c + k*uy*uy
	r[5] = k*uy*uz - s*ux
	r[6] = k*uz*ux - s*uy
	r[7] = k*uz*uy + s*ux
	r[8] = c + k*uz*uz
	return true
}

func mat3Mul(dst, a *[9]float64, b []float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst[i*3+j] = a[i*3]*b[j] + a[i*3+1]*b[3+j] + a[i*3+2]*b[6+j]
		}
	}
}

func mat3Vec(dst *[3]float64, a *[9]float64, v []float64) {
	for i := 0; i < 3; i++ {
		dst[i] = a[i*3]*v[0] + a[i*3+1]*v[1] + a[i*3+2]*v[2]
	}
}
