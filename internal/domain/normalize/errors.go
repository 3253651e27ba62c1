package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrInvalidScale = errors.New("invalid scale bounds")
)
