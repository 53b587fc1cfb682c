// Package mr provides shared primitives for magnetic-resonance simulation.
//
// The package defines physical constants, the domain error set, and the
// [Coeff] type used to broadcast per-spin physical parameters:
//
//   - [Coeff]: a coefficient resolved at scalar, per-batch, or per-spin
//     granularity over a (N, nM) spin batch
//   - [GammaH]: gyromagnetic ratio of hydrogen, Hz/Gauss
//   - [Dt0]: default dwell time, seconds
//
// # Batched storage convention
//
// All batched quantities in this module are flat []float64 slices in
// batch-major order. A compact scalar attribute over N batch elements and
// nM spins is indexed as v[n*nM+m]; a compact 3-vector attribute as
// v[(n*nM+m)*3+c].
package mr
