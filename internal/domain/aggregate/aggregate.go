// Package aggregate folds provisional scored rows into one record per
// (student, project, parameter, assessment type) key.
//
// Several raw questions can legitimately map to the same parameter for the
// same student; their scores are averaged, never overwritten. Last-writer-
// wins would silently lose the information the averaging rule preserves,
// so this package has no replace operation at all.
package aggregate

import (
	"context"
	"sort"

	"github.com/okian/gradeflow/internal/domain/model"
	"github.com/okian/gradeflow/internal/domain/normalize"
)

// Key identifies one output record.
type Key struct {
	StudentID   string
	ProjectID   string
	ParameterID string
	Type        model.AssessmentType
}

// Input is one provisional scored row entering the aggregator.
type Input struct {
	Key        Key
	QuestionID string
	RawScore   float64
	Normalized float64
	ScaleMin   float64
	ScaleMax   float64
	SourceFile string
}

// accumulator sums contributions for one key. Raw and normalized scores
// are averaged independently: the mean of individually normalized scores
// is not the normalization of the mean raw score when inputs span scales.
type accumulator struct {
	rawSum     float64
	normSum    float64
	count      int
	questionID string // first seen, representative
	sourceFile string // first seen, representative
	scaleMin   float64
	scaleMax   float64
}

// Aggregator accumulates inputs and emits deduplicated records.
type Aggregator struct {
	byKey map[Key]*accumulator
	order []Key // insertion order, for stable first-seen semantics
}

// New builds an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		byKey: make(map[Key]*accumulator),
	}
}

// Add folds one provisional row into its key's accumulator. The first
// contribution's question and source file are retained as the record's
// representative provenance.
func (a *Aggregator) Add(_ context.Context, in Input) {
	acc, ok := a.byKey[in.Key]
	if !ok {
		acc = &accumulator{
			questionID: in.QuestionID,
			sourceFile: in.SourceFile,
			scaleMin:   in.ScaleMin,
			scaleMax:   in.ScaleMax,
		}
		a.byKey[in.Key] = acc
		a.order = append(a.order, in.Key)
	}
	acc.rawSum += in.RawScore
	acc.normSum += in.Normalized
	acc.count++
}

// Len returns the number of distinct keys accumulated so far.
func (a *Aggregator) Len() int {
	return len(a.byKey)
}

// Duplicates returns the keys that received more than one contribution,
// with their counts, for the audit report.
func (a *Aggregator) Duplicates() map[Key]int {
	dupes := make(map[Key]int)
	for k, acc := range a.byKey {
		if acc.count > 1 {
			dupes[k] = acc.count
		}
	}
	return dupes
}

// Records emits one record per key, scores averaged and rounded to 2
// decimals independently of each other. Output order is deterministic:
// sorted by student, project, parameter, then type.
func (a *Aggregator) Records(_ context.Context) []model.Record {
	records := make([]model.Record, 0, len(a.byKey))
	for _, k := range a.order {
		acc := a.byKey[k]
		records = append(records, model.Record{
			StudentID:   k.StudentID,
			ProjectID:   k.ProjectID,
			ParameterID: k.ParameterID,
			Type:        k.Type,
			QuestionID:  acc.questionID,
			RawScore:    normalize.Round2(acc.rawSum / float64(acc.count)),
			ScaleMin:    acc.scaleMin,
			ScaleMax:    acc.scaleMax,
			Normalized:  normalize.Round2(acc.normSum / float64(acc.count)),
			SourceCount: acc.count,
			SourceFile:  acc.sourceFile,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		if a.ParameterID != b.ParameterID {
			return a.ParameterID < b.ParameterID
		}
		return a.Type < b.Type
	})
	return records
}
