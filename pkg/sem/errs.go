package sem

import "errors"

var (
	// ErrIndex indicates p <= 2, for which the electron energy fraction
	// correction is not positive.
	ErrIndex = errors.New("sem: electron index p must exceed 2")

	// ErrNonPositive indicates a non-positive observable or distance.
	ErrNonPositive = errors.New("sem: value must be positive")

	// ErrGeometry indicates an unknown outflow geometry.
	ErrGeometry = errors.New("sem: unknown geometry")

	// ErrFrequencies indicates only one of va and vm was given.
	ErrFrequencies = errors.New("sem: va and vm must both be positive or both unset")
)
