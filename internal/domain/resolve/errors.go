package resolve

import "errors"

// Sentinel kinds for resolution errors.
var (
	ErrNotFound = errors.New("entity not found")
)
