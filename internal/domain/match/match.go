// Package match reconciles free-text spreadsheet question headers against
// the seeded self-assessment question taxonomy.
//
// Header text varies release to release (typos, punctuation noise,
// near-duplicate phrasing), so matching is fuzzy: a normalized
// longest-matching-blocks similarity ratio with a configurable acceptance
// threshold, plus an exact-prefix fallback for headers that were reworded
// past the threshold but kept their opening clause.
package match

import (
	"sort"

	"github.com/okian/gradeflow/internal/domain/model"
)

// Default matcher parameters. The threshold is a tuning knob, not a law of
// nature; override it via options when a source corpus needs it.
const (
	defaultThreshold = 0.80
	defaultPrefixLen = 20
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum similarity ratio for a fuzzy match to be
// accepted. Values outside (0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= 1 {
			m.threshold = threshold
		}
	}
}

// WithPrefixLength sets the number of normalized characters compared by the
// exact-prefix fallback.
func WithPrefixLength(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.prefixLen = n
		}
	}
}

// Result is an accepted question match.
type Result struct {
	QuestionID  string
	ParameterID string
	Confidence  float64
}

// candidate is a question with its normalization precomputed.
type candidate struct {
	question   model.Question
	normalized string
}

// Matcher matches raw question text against seeded questions, scoped by
// project context. It is immutable after construction.
type Matcher struct {
	threshold float64
	prefixLen int
	byContext map[string][]candidate
}

// New builds a Matcher over the seeded questions. Candidates are grouped by
// project context and held in a stable order (parameter id, then question
// id) so ties always break the same way run to run.
func New(questions []model.Question, opts ...Option) *Matcher {
	m := &Matcher{
		threshold: defaultThreshold,
		prefixLen: defaultPrefixLen,
		byContext: make(map[string][]candidate),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, q := range questions {
		m.byContext[q.ProjectContext] = append(m.byContext[q.ProjectContext], candidate{
			question:   q,
			normalized: Normalize(q.Text),
		})
	}
	for _, cands := range m.byContext {
		sort.Slice(cands, func(i, j int) bool {
			a, b := cands[i].question, cands[j].question
			if a.ParameterID != b.ParameterID {
				return a.ParameterID < b.ParameterID
			}
			return a.ID < b.ID
		})
	}
	return m
}

// Threshold returns the acceptance threshold in effect.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match finds the seeded question for raw header text within a project
// context. Candidates from other contexts are never considered: an
// identical phrase can map to different parameters in different projects.
//
// On failure it returns a *NoMatchError carrying the best-seen candidate so
// the caller can log it for manual review; dropping a row silently is a
// correctness bug.
func (m *Matcher) Match(rawText, projectContext string) (Result, error) {
	norm := Normalize(rawText)
	cands := m.byContext[projectContext]

	var (
		best      *candidate
		bestRatio float64
	)
	ratios := make([]float64, len(cands))
	for i := range cands {
		ratios[i] = Ratio(norm, cands[i].normalized)
		// Strictly greater keeps the first candidate in sorted order on ties.
		if ratios[i] > bestRatio {
			best = &cands[i]
			bestRatio = ratios[i]
		}
	}
	if best != nil && bestRatio > m.threshold {
		return Result{
			QuestionID:  best.question.ID,
			ParameterID: best.question.ParameterID,
			Confidence:  bestRatio,
		}, nil
	}

	// Fallback: exact match on the leading normalized characters, for
	// sources that reworded the tail of a question but kept its opening.
	// Confidence is the accepted candidate's own ratio, not the best
	// fuzzy candidate's, which may be a different question.
	if prefix := truncate(norm, m.prefixLen); prefix != "" {
		for i := range cands {
			if truncate(cands[i].normalized, m.prefixLen) == prefix {
				return Result{
					QuestionID:  cands[i].question.ID,
					ParameterID: cands[i].question.ParameterID,
					Confidence:  ratios[i],
				}, nil
			}
		}
	}

	err := &NoMatchError{Attempted: norm, Context: projectContext}
	if best != nil {
		err.BestText = best.normalized
		err.BestRatio = bestRatio
	}
	return Result{}, err
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
