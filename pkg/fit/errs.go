package fit

import "errors"

var (
	// ErrNoObservations indicates an empty observation set.
	ErrNoObservations = errors.New("fit: no observations")

	// ErrShapeMismatch indicates observation arrays of unequal length.
	ErrShapeMismatch = errors.New("fit: observation arrays differ in length")

	// ErrBadObservation indicates a non-positive frequency, a negative error
	// or a non-finite value.
	ErrBadObservation = errors.New("fit: bad observation")

	// ErrBadConfig indicates an unusable fit configuration.
	ErrBadConfig = errors.New("fit: bad configuration")

	// ErrNoSamples indicates that burn-in and thinning left no samples.
	ErrNoSamples = errors.New("fit: no samples left after burn-in")

	// ErrNoPeak indicates that the model curve had no finite maximum on the grid.
	ErrNoPeak = errors.New("fit: model curve has no finite maximum on the grid")
)
