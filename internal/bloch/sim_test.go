package bloch

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/blochsim/internal/mr"
)

// randomField fills a (spins, xyz, nT) tensor with a reproducible field
// sequence.
func randomField(rng *rand.Rand, spins, nT int) []float64 {
	beff := make([]float64, spins*3*nT)
	for i := range beff {
		beff[i] = rng.NormFloat64()
	}
	return beff
}

func TestSimulateZeroFieldEquilibrium(t *testing.T) {
	g := NewWithT(t)

	m := []float64{0, 0, 1}
	beff := make([]float64, 3*512)
	out, err := Simulate(m, beff, 1, 1, 512, Options{
		T1: []float64{1},
		T2: []float64{4e-2},
		Dt: []float64{1e-3},
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal([]float64{0, 0, 1}))
	// In-place semantics: the result lives in the caller's buffer.
	g.Expect(&out[0]).To(BeIdenticalTo(&m[0]))
}

func TestSimulateMatchesManualSteps(t *testing.T) {
	g := NewWithT(t)

	const n, nM, nT = 1, 4, 16
	rng := rand.New(rand.NewSource(11))
	beff := randomField(rng, n*nM, nT)
	opts := Options{
		T1:    []float64{1.2},
		T2:    []float64{0.05},
		Gamma: []float64{mr.GammaH},
		Dt:    []float64{4e-6},
	}

	m := make([]float64, n*nM*3)
	for i := 0; i < n*nM; i++ {
		m[i*3+2] = 1
	}
	want := append([]float64(nil), m...)

	p, err := NewStepParams(n, nM, opts)
	g.Expect(err).NotTo(HaveOccurred())
	scratch := make([]float64, n*nM*3)
	bt := make([]float64, n*nM*3)
	cur := want
	for tt := 0; tt < nT; tt++ {
		GatherField(bt, beff, n*nM, nT, tt)
		cur, scratch, err = Step(cur, scratch, bt, p)
		g.Expect(err).NotTo(HaveOccurred())
	}

	got, err := Simulate(m, beff, n, nM, nT, opts)
	g.Expect(err).NotTo(HaveOccurred())
	for i := range got {
		g.Expect(got[i]).To(BeNumerically("~", cur[i], 1e-12))
	}
}

func TestPropagatorMatchesSimulate(t *testing.T) {
	g := NewWithT(t)

	const n, nM, nT = 2, 3, 32
	rng := rand.New(rand.NewSource(3))
	beff := randomField(rng, n*nM, nT)
	for i := range beff {
		beff[i] *= 0.1
	}
	opts := Options{
		T1:    []float64{1, 0.8},
		T2:    []float64{0.05, 0.04},
		Gamma: []float64{mr.GammaH},
		Dt:    []float64{4e-6},
	}

	m0 := make([]float64, n*nM*3)
	for i := range m0 {
		m0[i] = rng.NormFloat64()
	}

	mSim := append([]float64(nil), m0...)
	_, err := Simulate(mSim, beff, n, nM, nT, opts)
	g.Expect(err).NotTo(HaveOccurred())

	a, b, err := Propagator(beff, n, nM, nT, opts)
	g.Expect(err).NotTo(HaveOccurred())
	mAB := append([]float64(nil), m0...)
	g.Expect(SimulateAB(mAB, a, b, n, nM)).To(Succeed())

	for i := range mSim {
		g.Expect(mAB[i]).To(BeNumerically("~", mSim[i], 1e-9))
	}
}

func TestSimulateABIdentity(t *testing.T) {
	g := NewWithT(t)

	// Identity propagator with zero bias must be a no-op.
	const n, nM = 1, 2
	a := make([]float64, n*nM*9)
	for i := 0; i < n*nM; i++ {
		a[i*9], a[i*9+4], a[i*9+8] = 1, 1, 1
	}
	b := make([]float64, n*nM*3)
	m := []float64{0.3, -0.2, 0.9, 0.1, 0.4, -0.5}
	want := append([]float64(nil), m...)
	g.Expect(SimulateAB(m, a, b, n, nM)).To(Succeed())
	g.Expect(m).To(Equal(want))
}

func TestSteppedRelaxationMatchesFreePrecess(t *testing.T) {
	g := NewWithT(t)

	// Zero field: N steps of d/N compose to exactly the closed-form decay.
	const steps = 200
	const d = 0.1
	t1, t2 := []float64{1.0}, []float64{4e-2}

	m := []float64{0.5, -0.3, 0.2}
	beff := make([]float64, 3*steps)
	_, err := Simulate(m, beff, 1, 1, steps, Options{T1: t1, T2: t2, Dt: []float64{d / steps}})
	g.Expect(err).NotTo(HaveOccurred())

	want := []float64{0.5, -0.3, 0.2}
	g.Expect(FreePrecess(want, 1, 1, []float64{d}, t1, t2, nil)).To(Succeed())

	for i := range m {
		g.Expect(m[i]).To(BeNumerically("~", want[i], 1e-9))
	}

	// And the closed form is the exponential law itself.
	e1, e2 := math.Exp(-d/1.0), math.Exp(-d/4e-2)
	g.Expect(want[0]).To(BeNumerically("~", 0.5*e2, 1e-12))
	g.Expect(want[1]).To(BeNumerically("~", -0.3*e2, 1e-12))
	g.Expect(want[2]).To(BeNumerically("~", e1*0.2+1-e1, 1e-12))
}
