package repository

import "errors"

// Sentinel kinds for datastore errors.
var (
	ErrRefLoad = errors.New("reference data load failed")
	ErrWrite   = errors.New("datastore write failed")
)
