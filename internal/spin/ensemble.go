package spin

import (
	"sync"

	"github.com/san-kum/blochsim/internal/pulse"
)

// Run pairs a cube with the pulse to simulate against it.
type Run struct {
	Cube  *Cube
	Pulse *pulse.Pulse
	B1    []float64 // optional transmit sensitivity (N, nM, xy)
}

// RunEnsemble simulates independent runs concurrently, one goroutine each.
// Each run mutates only its own cube (single-writer discipline), so the
// runs must not share cubes. Results are returned in input order; the
// first error wins.
func RunEnsemble(runs []Run, writeBack bool) ([][]float64, error) {
	results := make([][]float64, len(runs))
	errs := make([]error, len(runs))

	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r := runs[idx]
			results[idx], errs[idx] = r.Cube.ApplyPulse(r.Pulse, r.B1, writeBack)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
