// Package repository defines the datastore contracts and their Postgres
// and in-memory implementations.
//
// The pipeline touches the datastore exactly twice per run: one bulk
// reference-data fetch at startup, and one bulk replace per assessment
// type at the end. Per-row round-trips are the one performance mistake
// this layer exists to prevent.
package repository

import (
	"context"

	"github.com/okian/gradeflow/internal/domain/model"
)

// RefSource bulk-fetches the reference tables for one run.
type RefSource interface {
	// Load fetches students, projects, domains, parameters and questions.
	// A failure here is fatal for the run; nothing partial is usable.
	Load(ctx context.Context) (*model.RefData, error)
}

// RecordSink persists pipeline output.
type RecordSink interface {
	// ReplaceAssessments deletes all existing records of the given type and
	// inserts the new batch in one transaction. The delete predicate is
	// scoped to the type being reloaded; other types are untouched.
	ReplaceAssessments(ctx context.Context, typ model.AssessmentType, records []model.Record) error

	// UpsertPeerFeedback writes peer rows at (recipient, giver, project)
	// grain, replacing on conflict.
	UpsertPeerFeedback(ctx context.Context, rows []model.PeerFeedback) error

	// UpsertTermRecords writes term rows at (student, term) grain,
	// replacing on conflict.
	UpsertTermRecords(ctx context.Context, rows []model.TermRecord) error
}

// Store combines both sides of the datastore contract.
type Store interface {
	RefSource
	RecordSink
}
