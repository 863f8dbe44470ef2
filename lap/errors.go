package lap

import "github.com/pkg/errors"

// Sentinel errors for the tracking pipeline. Callers should match them
// with errors.Is since most failures come back wrapped with context.
var (
	// ErrInvalidInput means a malformed or empty matrix / observation table.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyFrame means a cost matrix builder was given an empty frame.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrNoSegments means there are no track segments to stitch.
	ErrNoSegments = errors.New("no track segments")
	// ErrSolverFailure means the assignment solver could not produce a
	// complete solution. Should not happen with the default cost design.
	ErrSolverFailure = errors.New("solver failure")
)
