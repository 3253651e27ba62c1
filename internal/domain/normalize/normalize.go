// Package normalize rescales raw assessment scores from their declared
// source scale onto the canonical 1-10 scale.
//
// Source instruments disagree on bounds (1-5, 0-5, 0-10, 1-10) and
// occasionally carry transcription artifacts such as a 100 on a 1-10
// scale. The normalizer applies one affine mapping, corrects clean
// decimal-shift typos where the source is trusted for it, clamps
// everything else to the nearest bound, and reports every adjustment so
// no correction happens silently.
package normalize

import (
	"fmt"
	"math"
)

// Canonical target scale.
const (
	defaultTargetMin = 1.0
	defaultTargetMax = 10.0
)

// Adjustment describes how a raw score was altered before normalization.
type Adjustment int

// Adjustment kinds. AdjustNone means the raw score was in bounds and used
// as-is.
const (
	AdjustNone Adjustment = iota
	AdjustClamped
	AdjustDecimalShift
)

// String names the adjustment for audit output.
func (a Adjustment) String() string {
	switch a {
	case AdjustClamped:
		return "clamped"
	case AdjustDecimalShift:
		return "decimal-shift"
	default:
		return "none"
	}
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithTargetScale overrides the canonical target bounds.
func WithTargetScale(targetMin, targetMax float64) Option {
	return func(n *Normalizer) {
		if targetMax > targetMin {
			n.targetMin = targetMin
			n.targetMax = targetMax
		}
	}
}

// WithDecimalShift enables the divide-by-10 correction for out-of-range
// scores. Only enable it for sources known to contain decimal-shift typos;
// everywhere else an out-of-range score clamps.
func WithDecimalShift(enabled bool) Option {
	return func(n *Normalizer) {
		n.decimalShift = enabled
	}
}

// Result is a normalized score together with the raw value actually used
// (post-correction) and what, if anything, was adjusted.
type Result struct {
	Raw        float64 // raw score after any correction, unrounded
	Normalized float64 // canonical-scale score, rounded to 2 decimals
	Adjustment Adjustment
}

// Normalizer maps raw scores onto the canonical scale. It is immutable
// after construction.
type Normalizer struct {
	targetMin    float64
	targetMax    float64
	decimalShift bool
}

// New builds a Normalizer with the canonical 1-10 target scale.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		targetMin: defaultTargetMin,
		targetMax: defaultTargetMax,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw on [scaleMin, scaleMax] to the target scale.
//
// When the source bounds already equal the target bounds the value passes
// through unchanged (identity) to avoid compounding rounding error. An
// out-of-range raw is first tried against the decimal-shift correction if
// enabled (raw/10 must land back in bounds), otherwise it clamps to the
// nearest bound; either way the adjustment is reported, never applied
// silently.
func (n *Normalizer) Normalize(raw, scaleMin, scaleMax float64) (Result, error) {
	if scaleMax <= scaleMin {
		return Result{}, fmt.Errorf("%w: [%v, %v]", ErrInvalidScale, scaleMin, scaleMax)
	}

	adjustment := AdjustNone
	switch {
	case raw >= scaleMin && raw <= scaleMax:
		// In bounds.
	case n.decimalShift && raw > scaleMax && raw/10 >= scaleMin && raw/10 <= scaleMax:
		raw /= 10
		adjustment = AdjustDecimalShift
	case raw > scaleMax:
		raw = scaleMax
		adjustment = AdjustClamped
	default:
		raw = scaleMin
		adjustment = AdjustClamped
	}

	normalized := raw
	if scaleMin != n.targetMin || scaleMax != n.targetMax {
		normalized = (raw-scaleMin)/(scaleMax-scaleMin)*(n.targetMax-n.targetMin) + n.targetMin
	}

	return Result{
		Raw:        raw,
		Normalized: Round2(normalized),
		Adjustment: adjustment,
	}, nil
}

// Round2 rounds to 2 decimal places, half away from zero. All emitted
// scores use this convention so literal decimal expectations hold.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
