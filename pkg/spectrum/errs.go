package spectrum

import "errors"

// ErrInvalidBreak indicates a break number outside 1..11.
var ErrInvalidBreak = errors.New("spectrum: break number must be in 1..11")
