// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - Source-file quirks (scales, decimal-shift trust, skip columns) live
//   here as data, never as hardcoded logic in the pipeline.
// - External errors must be wrapped via this package's error helpers.
package config

import "errors"

// Default reconciliation parameters.
const (
	defaultMatchThreshold = 0.80
	defaultPrefixLength   = 20
	defaultTargetMin      = 1.0
	defaultTargetMax      = 10.0
	defaultScaleMax       = 10.0
)

// SelfSource describes one self-assessment response workbook.
type SelfSource struct {
	// File is the workbook path.
	File string `koanf:"file"`

	// Project is the project context the form belongs to; question
	// matching never crosses it.
	Project string `koanf:"project"`

	// ScaleMin and ScaleMax are the form's declared rating bounds.
	ScaleMin float64 `koanf:"scale_min"`
	ScaleMax float64 `koanf:"scale_max"`

	// SkipColumns lists headers to ignore beyond the built-in ones,
	// e.g. free-text reflection prompts.
	SkipColumns []string `koanf:"skip_columns"`

	// DecimalShift trusts this file for divide-by-10 correction of
	// out-of-range scores. Off by default: self forms clamp.
	DecimalShift bool `koanf:"decimal_shift"`
}

// MentorSource describes the mentor assessment matrix workbook.
type MentorSource struct {
	// File is the workbook path.
	File string `koanf:"file"`

	// Tabs maps sheet names to project names; unlisted sheets are ignored.
	// Several tabs may map to one project ("Copy of Legacy" -> Legacy).
	Tabs map[string]string `koanf:"tabs"`

	// Scales overrides ScaleMax per project; projects not listed use
	// DefaultScaleMax.
	Scales map[string]float64 `koanf:"scales"`

	// DefaultScaleMax is the matrix's usual upper bound.
	DefaultScaleMax float64 `koanf:"default_scale_max"`

	// DecimalShift trusts the matrix for divide-by-10 correction; the
	// observed data carries stray 1-100 entries here.
	DecimalShift bool `koanf:"decimal_shift"`
}

// PeerSource describes the peer feedback form workbook.
type PeerSource struct {
	File  string `koanf:"file"`
	Sheet string `koanf:"sheet"`
}

// TermSource describes the term report workbook.
type TermSource struct {
	File  string `koanf:"file"`
	Sheet string `koanf:"sheet"`
	Term  string `koanf:"term"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DatabaseURL is the Postgres DSN. Required: reference data always
	// comes from the database, even under -dry-run, which only discards
	// writes.
	DatabaseURL string `koanf:"database_url"`

	// MatchThreshold is the minimum similarity ratio for a fuzzy question
	// match. A tuning knob, not a law of nature.
	MatchThreshold float64 `koanf:"match_threshold"`

	// MatchPrefixLength is the normalized-prefix length used by the
	// fallback match.
	MatchPrefixLength int `koanf:"match_prefix_length"`

	// TargetScaleMin and TargetScaleMax define the canonical output scale.
	TargetScaleMin float64 `koanf:"target_scale_min"`
	TargetScaleMax float64 `koanf:"target_scale_max"`

	// NameColumns is the prioritized list of headers tried when locating
	// the respondent name column.
	NameColumns []string `koanf:"name_columns"`

	// MaxSkipRatio fails a batch whose skipped/seen row ratio exceeds it;
	// 0 disables the tolerance check.
	MaxSkipRatio float64 `koanf:"max_skip_ratio"`

	// Source workbooks.
	SelfSources []SelfSource `koanf:"self_sources"`
	Mentor      MentorSource `koanf:"mentor"`
	Peer        PeerSource   `koanf:"peer"`
	Term        TermSource   `koanf:"term"`
}

// New creates a Config with defaults. Source files are configuration, not
// defaults; a run without configured sources has nothing to do.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		MatchThreshold:    defaultMatchThreshold,
		MatchPrefixLength: defaultPrefixLength,
		TargetScaleMin:    defaultTargetMin,
		TargetScaleMax:    defaultTargetMax,
		NameColumns:       []string{"Student Name", "Your Name", "Name"},
		Mentor: MentorSource{
			DefaultScaleMax: defaultScaleMax,
			DecimalShift:    true,
		},
	}
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return invalid("match_threshold must be in (0, 1]")
	}
	if c.MatchPrefixLength <= 0 {
		return invalid("match_prefix_length must be positive")
	}
	if c.TargetScaleMax <= c.TargetScaleMin {
		return invalid("target scale max must exceed min")
	}
	if c.MaxSkipRatio < 0 || c.MaxSkipRatio > 1 {
		return invalid("max_skip_ratio must be in [0, 1]")
	}
	for _, src := range c.SelfSources {
		if src.File == "" || src.Project == "" {
			return invalid("self source needs file and project")
		}
		if src.ScaleMax <= src.ScaleMin {
			return invalid("self source " + src.File + ": scale max must exceed min")
		}
	}
	if c.Mentor.File != "" && len(c.Mentor.Tabs) == 0 {
		return invalid("mentor source needs a tab map")
	}
	return nil
}

func invalid(msg string) error {
	return errors.Join(ErrInvalidConfig, errors.New(msg))
}
