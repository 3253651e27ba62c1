package match

import (
	"errors"
	"fmt"
)

// ErrNoMatch is the sentinel kind for failed question matches; use
// errors.Is against it and errors.As against *NoMatchError for the
// diagnostic details.
var ErrNoMatch = errors.New("no question match")

// NoMatchError reports a failed match together with the closest candidate
// seen, for the audit trail.
type NoMatchError struct {
	Attempted string  // normalized text that was looked up
	Context   string  // project context searched
	BestText  string  // normalized text of the closest candidate, if any
	BestRatio float64 // its similarity ratio
}

func (e *NoMatchError) Error() string {
	if e.BestText == "" {
		return fmt.Sprintf("no question match in %q for %q (no candidates)", e.Context, e.Attempted)
	}
	return fmt.Sprintf("no question match in %q for %q (best ratio %.2f: %q)",
		e.Context, e.Attempted, e.BestRatio, e.BestText)
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatch }
