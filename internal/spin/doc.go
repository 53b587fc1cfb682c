// Package spin models batched spin populations over masked spatial grids.
//
//   - [Population]: owns compact per-spin T1, T2, gyro ratio, and
//     magnetization over a fixed [grid.IndexMap]
//   - [Cube]: a Population with a spatial coordinate model (field of view,
//     offset, derived per-spin locations) and an off-resonance map
//
// Every attribute has an explicit compact/dense accessor pair. Compact
// storage is the source of truth; dense getters return freshly embedded
// copies with NaN at masked-out cells, and writes into them never reach
// the population. Subset mutation goes through coordinate translation
// ([Population.SetMAt]), not through dense views.
package spin
