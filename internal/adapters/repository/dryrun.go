package repository

import (
	"context"

	"github.com/okian/gradeflow/internal/domain/model"
)

// DryRun wraps a Store, delegating reference-data loads and discarding
// every write. It lets a full run be rehearsed against real reference
// data without touching the assessment tables.
type DryRun struct {
	inner Store
}

// NewDryRun wraps store in a write-discarding decorator.
func NewDryRun(store Store) *DryRun {
	return &DryRun{inner: store}
}

func (d *DryRun) Load(ctx context.Context) (*model.RefData, error) {
	return d.inner.Load(ctx)
}

func (d *DryRun) ReplaceAssessments(_ context.Context, _ model.AssessmentType, _ []model.Record) error {
	return nil
}

func (d *DryRun) UpsertPeerFeedback(_ context.Context, _ []model.PeerFeedback) error {
	return nil
}

func (d *DryRun) UpsertTermRecords(_ context.Context, _ []model.TermRecord) error {
	return nil
}
