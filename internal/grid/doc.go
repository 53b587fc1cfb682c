// Package grid maps between dense spatial layouts and compact masked-subset
// layouts.
//
// A dense attribute covers every cell of an N-dimensional spatial grid,
// shape (N, *dims, ...). A compact attribute covers only the masked-in
// cells, shape (N, nM, ...). [IndexMap] owns the bookkeeping between the
// two: [IndexMap.Extract] gathers dense values into compact form,
// [IndexMap.Embed] scatters compact values back, filling non-mask cells
// with NaN, and [IndexMap.Translate] converts dense spatial coordinates to
// compact spin indices so callers can address compact storage without ever
// materializing a dense buffer.
//
// The mask is shared by every batch element and fixed for the life of the
// map; there is no way to mutate it after construction.
package grid
