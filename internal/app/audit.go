package service

import (
	"fmt"
	"strings"

	"github.com/okian/gradeflow/internal/domain/aggregate"
	"github.com/okian/gradeflow/internal/domain/model"
	"github.com/okian/gradeflow/internal/domain/normalize"
)

// Drop records one skipped row and why it was skipped.
type Drop struct {
	Type    model.AssessmentType
	Source  string
	Subject string
	Detail  string
}

// Correction records a score that was altered before normalization.
type Correction struct {
	Type      model.AssessmentType
	Source    string
	Subject   string
	Kind      normalize.Adjustment
	Original  float64
	Corrected float64
}

// Merge records an aggregation key that absorbed more than one input row.
type Merge struct {
	Key   aggregate.Key
	Count int
}

// Audit collects row-level events across a run so operators can review
// what the pipeline silently skipped or corrected. It is not safe for
// concurrent use; the pipeline is single-threaded.
type Audit struct {
	drops       []Drop
	corrections []Correction
	merges      []Merge
}

// NewAudit returns an empty audit trail.
func NewAudit() *Audit {
	return &Audit{}
}

// Drop appends one skipped-row event.
func (a *Audit) Drop(typ model.AssessmentType, source, subject, detail string) {
	a.drops = append(a.drops, Drop{Type: typ, Source: source, Subject: subject, Detail: detail})
}

// Correction appends one score-correction event.
func (a *Audit) Correction(typ model.AssessmentType, source, subject string, kind normalize.Adjustment, original, corrected float64) {
	a.corrections = append(a.corrections, Correction{
		Type: typ, Source: source, Subject: subject,
		Kind: kind, Original: original, Corrected: corrected,
	})
}

// Merge appends one duplicate-merge event.
func (a *Audit) Merge(key aggregate.Key, count int) {
	a.merges = append(a.merges, Merge{Key: key, Count: count})
}

// Drops returns the recorded skipped rows.
func (a *Audit) Drops() []Drop { return a.drops }

// Corrections returns the recorded score corrections.
func (a *Audit) Corrections() []Correction { return a.corrections }

// Merges returns the recorded duplicate merges.
func (a *Audit) Merges() []Merge { return a.merges }

// Report renders the trail as plain text, one event per line. An empty
// trail renders as a single "clean run" line.
func (a *Audit) Report() string {
	if len(a.drops) == 0 && len(a.corrections) == 0 && len(a.merges) == 0 {
		return "audit: clean run, no rows skipped or corrected\n"
	}

	var b strings.Builder
	if len(a.drops) > 0 {
		fmt.Fprintf(&b, "skipped rows (%d):\n", len(a.drops))
		for _, d := range a.drops {
			fmt.Fprintf(&b, "  [%s] %s: %s: %s\n", d.Type, d.Source, d.Subject, d.Detail)
		}
	}
	if len(a.corrections) > 0 {
		fmt.Fprintf(&b, "corrected scores (%d):\n", len(a.corrections))
		for _, c := range a.corrections {
			fmt.Fprintf(&b, "  [%s] %s: %s: %s %g -> %g\n",
				c.Type, c.Source, c.Subject, c.Kind, c.Original, c.Corrected)
		}
	}
	if len(a.merges) > 0 {
		fmt.Fprintf(&b, "merged duplicates (%d keys):\n", len(a.merges))
		for _, m := range a.merges {
			fmt.Fprintf(&b, "  [%s] student=%s project=%s parameter=%s: %d rows averaged\n",
				m.Key.Type, m.Key.StudentID, m.Key.ProjectID, m.Key.ParameterID, m.Count)
		}
	}
	return b.String()
}
