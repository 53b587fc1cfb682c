package bloch

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/blochsim/internal/mr"
)

func TestZeroFieldFixedPoint(t *testing.T) {
	g := NewWithT(t)

	// Equilibrium spin, zero field, 512 steps: relaxation acts on a state
	// already at equilibrium, so nothing moves.
	p, err := NewStepParams(1, 1, Options{
		T1: []float64{1},
		T2: []float64{4e-2},
		Dt: []float64{1e-3},
	})
	g.Expect(err).NotTo(HaveOccurred())

	cur := []float64{0, 0, 1}
	scratch := make([]float64, 3)
	b := []float64{0, 0, 0}
	for i := 0; i < 512; i++ {
		cur, scratch, err = Step(cur, scratch, b, p)
		g.Expect(err).NotTo(HaveOccurred())
	}
	g.Expect(cur).To(Equal([]float64{0, 0, 1}))
}

func TestZeroFieldSkipsRotationBuffer(t *testing.T) {
	p, err := NewStepParams(1, 2, Options{})
	if err != nil {
		t.Fatal(err)
	}
	cur := []float64{1, 0, 0, 0, 1, 0}
	scratch := make([]float64, 6)
	out, spare, err := Step(cur, scratch, make([]float64, 6), p)
	if err != nil {
		t.Fatal(err)
	}
	// No rotation anywhere in the batch: result stays in cur, no NaN leaks
	// from the undefined zero-field axis.
	if &out[0] != &cur[0] || &spare[0] != &scratch[0] {
		t.Error("zero-field step should leave the result in the current buffer")
	}
	for _, v := range out {
		if math.IsNaN(v) {
			t.Fatalf("NaN leaked into state: %v", out)
		}
	}
}

func TestQuarterTurnAboutX(t *testing.T) {
	g := NewWithT(t)

	// gamma*2*pi*dt = pi/2 with |b| = 1 rotates by 90 degrees. Clockwise
	// convention takes +z to +y for a field along +x.
	p, err := NewStepParams(1, 1, Options{
		Gamma: []float64{0.25},
		Dt:    []float64{1},
	})
	g.Expect(err).NotTo(HaveOccurred())

	cur := []float64{0, 0, 1}
	out, _, err := Step(cur, make([]float64, 3), []float64{1, 0, 0}, p)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out[0]).To(BeNumerically("~", 0, 1e-12))
	g.Expect(out[1]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(out[2]).To(BeNumerically("~", 0, 1e-12))
}

func TestRotationPreservesMagnitude(t *testing.T) {
	g := NewWithT(t)

	rng := rand.New(rand.NewSource(7))
	const n, nM = 2, 5
	p, err := NewStepParams(n, nM, Options{})
	g.Expect(err).NotTo(HaveOccurred())

	cur := make([]float64, n*nM*3)
	b := make([]float64, n*nM*3)
	for i := range cur {
		cur[i] = rng.NormFloat64()
		b[i] = rng.NormFloat64()
	}
	before := make([]float64, n*nM)
	for i := 0; i < n*nM; i++ {
		before[i] = math.Sqrt(cur[i*3]*cur[i*3] + cur[i*3+1]*cur[i*3+1] + cur[i*3+2]*cur[i*3+2])
	}

	out, _, err := Step(cur, make([]float64, n*nM*3), b, p)
	g.Expect(err).NotTo(HaveOccurred())
	for i := 0; i < n*nM; i++ {
		after := math.Sqrt(out[i*3]*out[i*3] + out[i*3+1]*out[i*3+1] + out[i*3+2]*out[i*3+2])
		g.Expect(after).To(BeNumerically("~", before[i], 1e-12))
	}
}

func TestMixedZeroNonzeroBatch(t *testing.T) {
	g := NewWithT(t)

	// One spin sees a field, the other does not: the rotation branch runs
	// for the batch, the zero-field spin passes through untouched.
	p, err := NewStepParams(1, 2, Options{
		Gamma: []float64{0.25},
		Dt:    []float64{1},
	})
	g.Expect(err).NotTo(HaveOccurred())

	cur := []float64{0, 0, 1, 0, 0, 1}
	b := []float64{1, 0, 0, 0, 0, 0}
	out, _, err := Step(cur, make([]float64, 6), b, p)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out[1]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(out[3:6]).To(Equal([]float64{0, 0, 1}))
}

func TestStepParamShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad T1", Options{T1: make([]float64, 5), T2: []float64{1}}},
		{"bad T2", Options{T1: []float64{1}, T2: make([]float64, 7)}},
		{"bad gamma", Options{Gamma: make([]float64, 4)}},
		{"bad dt", Options{Dt: make([]float64, 9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStepParams(2, 3, tt.opts); !errors.Is(err, mr.ErrShapeMismatch) {
				t.Errorf("NewStepParams error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestStepBufferShapeErrors(t *testing.T) {
	p, _ := NewStepParams(1, 2, Options{})
	if _, _, err := Step(make([]float64, 6), make([]float64, 6), make([]float64, 5), p); !errors.Is(err, mr.ErrShapeMismatch) {
		t.Errorf("Step error = %v, want ErrShapeMismatch", err)
	}
	if _, _, err := Step(make([]float64, 3), make([]float64, 6), make([]float64, 6), p); !errors.Is(err, mr.ErrShapeMismatch) {
		t.Errorf("Step error = %v, want ErrShapeMismatch", err)
	}
}
