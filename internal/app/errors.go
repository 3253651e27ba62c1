package service

import "errors"

// Pipeline errors.
var (
	// ErrSkipTolerance is returned when a batch skips more rows than the
	// configured tolerance allows; the batch is not written.
	ErrSkipTolerance = errors.New("skipped row ratio exceeds tolerance")
)
