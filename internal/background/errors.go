package background

import "errors"

// Sentinel errors for the failure taxonomy of the background pipeline.
// Shape and window errors are fatal for the call that raised them; model and
// region errors are isolated to the shoebox that produced them.
var (
	// ErrShapeMismatch indicates two grids expected to share dimensions do not.
	ErrShapeMismatch = errors.New("grid shape mismatch")

	// ErrDegenerateWindow indicates a smoothing window with zero contributing
	// neighbours. The caller must supply a kernel radius large enough for the
	// mask sparsity.
	ErrDegenerateWindow = errors.New("smoothing window has no contributing neighbours")

	// ErrDegenerateModel indicates a background model sub-window that sums to
	// zero or negative, making a scale fit meaningless.
	ErrDegenerateModel = errors.New("background model sub-window sum is not positive")

	// ErrInconsistentRegion indicates a shoebox whose buffers fail the
	// structural consistency check.
	ErrInconsistentRegion = errors.New("shoebox buffers are inconsistent")
)
