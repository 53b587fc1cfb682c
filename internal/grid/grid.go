package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/blochsim/internal/mr"
)

// IndexMap maps between a dense (N, *dims, ...) layout and a compact
// (N, nM, ...) layout over the masked-in cells of the spatial grid.
// The zero value is not usable; construct with New.
type IndexMap struct {
	batch  int
	dims   []int
	vol    int   // product of dims
	nM     int   // number of masked-in cells
	cells  []int // spatial offsets of masked-in cells, ascending
	lookup []int // spatial offset -> compact index, -1 where masked out
}

// New builds an IndexMap for a batch of size batch over the given spatial
// dims. mask holds one bool per spatial cell in row-major order and is
// shared by every batch element; nil means all cells are in. The mask is
// copied into internal tables, so later changes to the argument have no
// effect on the map.
func New(batch int, dims []int, mask []bool) (*IndexMap, error) {
	if batch < 1 || len(dims) == 0 {
		return nil, fmt.Errorf("%w: batch %d, %d spatial dims", mr.ErrShapeMismatch, batch, len(dims))
	}
	vol := 1
	for _, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: non-positive spatial dim %d", mr.ErrShapeMismatch, d)
		}
		vol *= d
	}
	if mask != nil && len(mask) != vol {
		return nil, fmt.Errorf("%w: mask covers %d cells, grid has %d", mr.ErrInvalidMask, len(mask), vol)
	}

	im := &IndexMap{
		batch:  batch,
		dims:   append([]int(nil), dims...),
		vol:    vol,
		lookup: make([]int, vol),
	}
	for s := 0; s < vol; s++ {
		if mask == nil || mask[s] {
			im.lookup[s] = im.nM
			im.cells = append(im.cells, s)
			im.nM++
		} else {
			im.lookup[s] = -1
		}
	}
	return im, nil
}

func (im *IndexMap) Batch() int { return im.batch }
func (im *IndexMap) NM() int    { return im.nM }
func (im *IndexMap) Vol() int   { return im.vol }

// Dims returns a copy of the spatial dimensions.
func (im *IndexMap) Dims() []int { return append([]int(nil), im.dims...) }

// AllTrue reports whether every spatial cell is masked in, in which case
// dense and compact layouts coincide.
func (im *IndexMap) AllTrue() bool { return im.nM == im.vol }

// Mask returns a fresh copy of the mask.
func (im *IndexMap) Mask() []bool {
	m := make([]bool, im.vol)
	for _, s := range im.cells {
		m[s] = true
	}
	return m
}

// CellAt returns the spatial offset of the i-th masked-in cell.
func (im *IndexMap) CellAt(i int) int { return im.cells[i] }

// Unravel decomposes a row-major spatial offset into per-axis coordinates,
// writing into out when it has the right length.
func (im *IndexMap) Unravel(offset int, out []int) []int {
	if len(out) != len(im.dims) {
		out = make([]int, len(im.dims))
	}
	for a := len(im.dims) - 1; a >= 0; a-- {
		out[a] = offset % im.dims[a]
		offset /= im.dims[a]
	}
	return out
}

// Extract gathers the masked-in entries of a dense (N, *dims, inner) slice
// into compact (N, nM, inner) layout. out, when non-nil, receives the
// result without any intermediate allocation and must have length
// N*nM*inner. When the mask is all true this is a straight copy.
func (im *IndexMap) Extract(dense []float64, inner int, out []float64) ([]float64, error) {
	if inner < 1 || len(dense) != im.batch*im.vol*inner {
		return nil, fmt.Errorf("%w: dense length %d, want %d", mr.ErrShapeMismatch, len(dense), im.batch*im.vol*inner)
	}
	want := im.batch * im.nM * inner
	if out == nil {
		out = make([]float64, want)
	} else if len(out) != want {
		return nil, fmt.Errorf("%w: out length %d, want %d", mr.ErrShapeMismatch, len(out), want)
	}
	if im.AllTrue() {
		copy(out, dense)
		return out, nil
	}
	for b := 0; b < im.batch; b++ {
		src := dense[b*im.vol*inner:]
		dst := out[b*im.nM*inner:]
		for i, s := range im.cells {
			copy(dst[i*inner:(i+1)*inner], src[s*inner:(s+1)*inner])
		}
	}
	return out, nil
}

// Embed scatters a compact (N, nM, inner) slice into dense (N, *dims,
// inner) layout. Cells outside the mask are filled with NaN so that
// unmapped positions cannot be mistaken for physical values. out, when
// non-nil, must have length N*vol*inner.
func (im *IndexMap) Embed(compact []float64, inner int, out []float64) ([]float64, error) {
	if inner < 1 || len(compact) != im.batch*im.nM*inner {
		return nil, fmt.Errorf("%w: compact length %d, want %d", mr.ErrShapeMismatch, len(compact), im.batch*im.nM*inner)
	}
	want := im.batch * im.vol * inner
	if out == nil {
		out = make([]float64, want)
	} else if len(out) != want {
		return nil, fmt.Errorf("%w: out length %d, want %d", mr.ErrShapeMismatch, len(out), want)
	}
	if im.AllTrue() {
		copy(out, compact)
		return out, nil
	}
	nan := math.NaN()
	for i := range out {
		out[i] = nan
	}
	for b := 0; b < im.batch; b++ {
		src := compact[b*im.nM*inner:]
		dst := out[b*im.vol*inner:]
		for i, s := range im.cells {
			copy(dst[s*inner:(s+1)*inner], src[i*inner:(i+1)*inner])
		}
	}
	return out, nil
}

// Translate converts dense spatial coordinates into a compact spin index.
// The batch index is unaffected by translation and therefore not part of
// the call. The second return is false when the addressed cell is masked
// out, meaning there is no compact storage behind it.
func (im *IndexMap) Translate(coords []int) (int, bool, error) {
	if len(coords) != len(im.dims) {
		return 0, false, fmt.Errorf("%w: %d coordinates for %d spatial dims", mr.ErrShapeMismatch, len(coords), len(im.dims))
	}
	off := 0
	for a, c := range coords {
		if c < 0 || c >= im.dims[a] {
			return 0, false, fmt.Errorf("%w: coordinate %d out of range [0, %d) on axis %d", mr.ErrShapeMismatch, c, im.dims[a], a)
		}
		off = off*im.dims[a] + c
	}
	idx := im.lookup[off]
	if idx < 0 {
		return 0, false, nil
	}
	return idx, true, nil
}
