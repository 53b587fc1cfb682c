package spin

import (
	"fmt"

	"github.com/san-kum/blochsim/internal/grid"
	"github.com/san-kum/blochsim/internal/mr"
	"github.com/san-kum/blochsim/internal/pulse"
)

// Cube is a spin population with a spatial coordinate model: a field of
// view and offset per batch element, a derived per-spin location, and an
// off-resonance map. It holds a Population rather than extending one;
// population attributes are reached through Population().
type Cube struct {
	pop  *Population
	fov  []float64 // (N, xyz), cm
	ofst []float64 // (N, xyz), cm
	df   []float64 // (N, nM), Hz
	loc  []float64 // (N, nM, xyz), cm, derived from fov and ofst
	crd  []int     // scratch for Unravel
}

// NewCube builds a cube over a three-axis index map. fov is broadcastable
// as one xyz triple or one per batch element; the offset starts at zero
// and the off-resonance map at zero.
func NewCube(im *grid.IndexMap, fov []float64) (*Cube, error) {
	if len(im.Dims()) != 3 {
		return nil, fmt.Errorf("%w: cube needs 3 spatial dims, map has %d", mr.ErrShapeMismatch, len(im.Dims()))
	}
	n, nM := im.Batch(), im.NM()
	c := &Cube{
		pop:  NewPopulation(im),
		fov:  make([]float64, n*3),
		ofst: make([]float64, n*3),
		df:   make([]float64, n*nM),
		loc:  make([]float64, n*nM*3),
		crd:  make([]int, 3),
	}
	if err := c.SetFOV(fov); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cube) Population() *Population { return c.pop }
func (c *Cube) Batch() int              { return c.pop.Batch() }
func (c *Cube) NM() int                 { return c.pop.NM() }

// FOV and Offset return copies; mutation goes through the setters so the
// location buffer stays in sync.
func (c *Cube) FOV() []float64    { return append([]float64(nil), c.fov...) }
func (c *Cube) Offset() []float64 { return append([]float64(nil), c.ofst...) }

// SetFOV accepts one xyz triple or one per batch element and recomputes
// spin locations.
func (c *Cube) SetFOV(v []float64) error {
	if err := c.setVec3(c.fov, v); err != nil {
		return fmt.Errorf("fov: %w", err)
	}
	c.updateLoc()
	return nil
}

// SetOffset accepts one xyz triple or one per batch element and recomputes
// spin locations.
func (c *Cube) SetOffset(v []float64) error {
	if err := c.setVec3(c.ofst, v); err != nil {
		return fmt.Errorf("offset: %w", err)
	}
	c.updateLoc()
	return nil
}

func (c *Cube) setVec3(dst, v []float64) error {
	n := c.Batch()
	switch len(v) {
	case 3:
		for b := 0; b < n; b++ {
			copy(dst[b*3:(b+1)*3], v)
		}
	case n * 3:
		copy(dst, v)
	default:
		return fmt.Errorf("%w: length %d not broadcastable to (%d, 3)", mr.ErrShapeMismatch, len(v), n)
	}
	return nil
}

// updateLoc recomputes loc = fov * normalizedGrid + offset into the
// existing buffer. Normalized coordinates are (i - floor(d/2))/d per axis,
// spanning [-0.5, 0.5).
func (c *Cube) updateLoc() {
	im := c.pop.Map()
	dims := im.Dims()
	n, nM := c.Batch(), c.NM()
	for m := 0; m < nM; m++ {
		c.crd = im.Unravel(im.CellAt(m), c.crd)
		for a := 0; a < 3; a++ {
			ln := float64(c.crd[a]-dims[a]/2) / float64(dims[a])
			for b := 0; b < n; b++ {
				c.loc[(b*nM+m)*3+a] = c.fov[b*3+a]*ln + c.ofst[b*3+a]
			}
		}
	}
}

// LocCompact returns the live derived location buffer (N, nM, xyz). It is
// reused across FOV/offset updates, never reallocated per access.
func (c *Cube) LocCompact() []float64 { return c.loc }

// LocDense embeds the locations into the dense grid layout.
func (c *Cube) LocDense() []float64 { v, _ := c.pop.Map().Embed(c.loc, 3, nil); return v }

// SetLocCompact always fails: location is derived from fov and offset.
func (c *Cube) SetLocCompact([]float64) error {
	return fmt.Errorf("%w: location is derived from fov and offset", mr.ErrReadOnly)
}

func (c *Cube) DfCompact() []float64 { return c.df }
func (c *Cube) DfDense() []float64   { v, _ := c.pop.Map().Embed(c.df, 1, nil); return v }

func (c *Cube) SetDfCompact(v []float64) error { return c.pop.expand(c.df, v, 1) }
func (c *Cube) SetDfDense(v []float64) error   { return c.pop.extractInto(c.df, v, 1) }

// Beff synthesizes the effective-field tensor of pl at this cube's spin
// locations, off-resonance, and gyro ratios.
func (c *Cube) Beff(pl *pulse.Pulse, b1 []float64) ([]float64, error) {
	return pl.Beff(c.loc, c.df, b1, c.pop.gamma, c.Batch(), c.NM())
}

// ApplyPulse simulates pl against this cube's state; see
// Population.ApplyField for writeBack semantics.
func (c *Cube) ApplyPulse(pl *pulse.Pulse, b1 []float64, writeBack bool) ([]float64, error) {
	return c.pop.ApplyPulse(pl, c.loc, c.df, b1, writeBack)
}
