// Package bloch implements time-domain Bloch simulation of nuclear spin
// magnetization.
//
// The package operates on compact (N, nM, xyz) magnetization buffers as
// defined by [grid.IndexMap]:
//
//   - [Step]: one dwell-interval update, exact Rodrigues rotation about the
//     applied field followed by T1/T2 relaxation
//   - [Simulate]: drives Step across a (N, nM, xyz, nT) field tensor
//   - [Propagator] / [SimulateAB]: collapse a field sequence into one
//     affine map per spin and evaluate it in a single matrix-vector step
//   - [FreePrecess]: closed-form off-resonance dephasing plus relaxation
//
// # Conventions
//
// Rotation angles follow the clockwise precession convention: a field of
// magnitude |b| over a dwell interval dt rotates magnetization by
// phi = -gamma*2*pi*dt*|b| about b. This keeps the stepped path consistent
// with FreePrecess, where positive off-resonance dephases clockwise.
//
// Spin history is not retained: Simulate holds exactly two (N, nM, xyz)
// buffers regardless of step count.
//
// # Thread safety
//
// All functions are pure computation over caller-supplied buffers. A buffer
// being mutated by one call must not be read or written by another until
// the call returns.
package bloch
