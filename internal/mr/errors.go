package mr

import "errors"

// Domain errors for spin-batch operations.
var (
	// ErrShapeMismatch indicates an input whose leading dimensions disagree
	// with the (N, nM) contract of the object it was handed to.
	ErrShapeMismatch = errors.New("mr: shape mismatch")

	// ErrInvalidMask indicates a mask whose length does not cover the
	// declared spatial grid.
	ErrInvalidMask = errors.New("mr: invalid mask")

	// ErrInconsistentRelaxation indicates exactly one of T1/T2 was supplied
	// where both or neither is required.
	ErrInconsistentRelaxation = errors.New("mr: T1 and T2 must be supplied together")

	// ErrReadOnly indicates an attempt to assign a derived or structural
	// attribute.
	ErrReadOnly = errors.New("mr: attribute is read-only")
)
