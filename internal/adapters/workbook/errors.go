package workbook

import "errors"

// Sentinel kinds for workbook parsing errors.
var (
	ErrOpenWorkbook = errors.New("open workbook failed")
	ErrReadSheet    = errors.New("read sheet failed")
	ErrNoNameColumn = errors.New("no name column found")
	ErrMissingSheet = errors.New("sheet not found")
)
