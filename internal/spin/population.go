package spin

import (
	"fmt"

	"github.com/san-kum/blochsim/internal/bloch"
	"github.com/san-kum/blochsim/internal/grid"
	"github.com/san-kum/blochsim/internal/mr"
	"github.com/san-kum/blochsim/internal/pulse"
)

// Population is a batch of spins over the masked-in cells of a spatial
// grid. It exclusively owns its compact attribute buffers; the index map
// is shared read-only with whoever constructed it. Shape, mask, and spin
// count are fixed for the life of the object.
type Population struct {
	im    *grid.IndexMap
	t1    []float64 // (N, nM), seconds
	t2    []float64 // (N, nM), seconds
	gamma []float64 // (N, nM), Hz/Gauss
	m     []float64 // (N, nM, xyz)
}

// NewPopulation builds a population over im with gray-matter relaxation
// defaults, hydrogen gyro ratio, and equilibrium magnetization [0 0 1].
func NewPopulation(im *grid.IndexMap) *Population {
	n, nM := im.Batch(), im.NM()
	p := &Population{
		im:    im,
		t1:    make([]float64, n*nM),
		t2:    make([]float64, n*nM),
		gamma: make([]float64, n*nM),
		m:     make([]float64, n*nM*3),
	}
	for i := 0; i < n*nM; i++ {
		p.t1[i] = mr.T1Gray
		p.t2[i] = mr.T2Gray
		p.gamma[i] = mr.GammaH
		p.m[i*3+2] = 1
	}
	return p
}

func (p *Population) Map() *grid.IndexMap { return p.im }
func (p *Population) Batch() int          { return p.im.Batch() }
func (p *Population) NM() int             { return p.im.NM() }

// expand writes v into dst, broadcasting from one value per inner block
// (applied to every spin), one per batch element, or one per spin.
func (p *Population) expand(dst, v []float64, inner int) error {
	n, nM := p.Batch(), p.NM()
	switch len(v) {
	case inner:
		for i := 0; i < n*nM; i++ {
			copy(dst[i*inner:(i+1)*inner], v)
		}
	case n * inner:
		for b := 0; b < n; b++ {
			for m := 0; m < nM; m++ {
				copy(dst[(b*nM+m)*inner:(b*nM+m+1)*inner], v[b*inner:(b+1)*inner])
			}
		}
	case n * nM * inner:
		copy(dst, v)
	default:
		return fmt.Errorf("%w: value length %d not broadcastable to (%d, %d, %d)",
			mr.ErrShapeMismatch, len(v), n, nM, inner)
	}
	return nil
}

// extractInto extracts a dense (N, *dims, inner) value into dst.
func (p *Population) extractInto(dst, v []float64, inner int) error {
	_, err := p.im.Extract(v, inner, dst)
	return err
}

// Compact accessors return the live backing store.

func (p *Population) T1Compact() []float64    { return p.t1 }
func (p *Population) T2Compact() []float64    { return p.t2 }
func (p *Population) GammaCompact() []float64 { return p.gamma }
func (p *Population) MCompact() []float64     { return p.m }

func (p *Population) SetT1Compact(v []float64) error    { return p.expand(p.t1, v, 1) }
func (p *Population) SetT2Compact(v []float64) error    { return p.expand(p.t2, v, 1) }
func (p *Population) SetGammaCompact(v []float64) error { return p.expand(p.gamma, v, 1) }
func (p *Population) SetMCompact(v []float64) error     { return p.expand(p.m, v, 3) }

// Dense accessors embed into fresh buffers with NaN at masked-out cells.
// Writes into the returned slices do not reach the population.

func (p *Population) T1Dense() []float64 { v, _ := p.im.Embed(p.t1, 1, nil); return v }
func (p *Population) T2Dense() []float64 { v, _ := p.im.Embed(p.t2, 1, nil); return v }
func (p *Population) MDense() []float64  { v, _ := p.im.Embed(p.m, 3, nil); return v }

func (p *Population) SetT1Dense(v []float64) error { return p.extractInto(p.t1, v, 1) }
func (p *Population) SetT2Dense(v []float64) error { return p.extractInto(p.t2, v, 1) }
func (p *Population) SetMDense(v []float64) error  { return p.extractInto(p.m, v, 3) }

// MAt reads the magnetization at dense spatial coordinates of one batch
// element. The second return is false when the cell is masked out.
func (p *Population) MAt(batch int, coords []int) ([3]float64, bool, error) {
	var out [3]float64
	idx, ok, err := p.at(batch, coords)
	if err != nil || !ok {
		return out, ok, err
	}
	copy(out[:], p.m[idx*3:idx*3+3])
	return out, true, nil
}

// SetMAt writes the magnetization at dense spatial coordinates of one
// batch element, the supported mutation path for subsets. Writes to
// masked-out cells are reported, not silently dropped.
func (p *Population) SetMAt(batch int, coords []int, v [3]float64) error {
	idx, ok, err := p.at(batch, coords)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: cell %v is masked out", mr.ErrShapeMismatch, coords)
	}
	copy(p.m[idx*3:idx*3+3], v[:])
	return nil
}

func (p *Population) at(batch int, coords []int) (int, bool, error) {
	if batch < 0 || batch >= p.Batch() {
		return 0, false, fmt.Errorf("%w: batch index %d out of range [0, %d)", mr.ErrShapeMismatch, batch, p.Batch())
	}
	idx, ok, err := p.im.Translate(coords)
	if err != nil || !ok {
		return 0, ok, err
	}
	return batch*p.NM() + idx, true, nil
}

// ApplyField advances the population's state through the field tensor beff
// (N, nM, xyz, nT) with per-batch dwell time dt. With writeBack the
// population's magnetization is updated in place and returned; otherwise
// the result lands in a fresh compact buffer and the population is left
// untouched.
func (p *Population) ApplyField(beff []float64, nT int, dt []float64, writeBack bool) ([]float64, error) {
	m := p.m
	if !writeBack {
		m = append([]float64(nil), p.m...)
	}
	return bloch.Simulate(m, beff, p.Batch(), p.NM(), nT, bloch.Options{
		T1:    p.t1,
		T2:    p.t2,
		Gamma: p.gamma,
		Dt:    dt,
	})
}

// ApplyPulse synthesizes the effective field of pl at compact locations
// loc, with optional off-resonance df and transmit sensitivity b1, and
// runs the simulation as ApplyField does.
func (p *Population) ApplyPulse(pl *pulse.Pulse, loc, df, b1 []float64, writeBack bool) ([]float64, error) {
	beff, err := pl.Beff(loc, df, b1, p.gamma, p.Batch(), p.NM())
	if err != nil {
		return nil, err
	}
	return p.ApplyField(beff, pl.NT(), []float64{pl.Dt}, writeBack)
}
