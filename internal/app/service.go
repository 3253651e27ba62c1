// Package service orchestrates the batch pipeline: load reference data,
// stream workbook rows through resolution, matching and normalization,
// aggregate, and replace the datastore's rows for each assessment type.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/gradeflow/internal/adapters/repository"
	"github.com/okian/gradeflow/internal/adapters/workbook"
	"github.com/okian/gradeflow/internal/config"
	"github.com/okian/gradeflow/internal/domain/aggregate"
	"github.com/okian/gradeflow/internal/domain/match"
	"github.com/okian/gradeflow/internal/domain/model"
	"github.com/okian/gradeflow/internal/domain/normalize"
	"github.com/okian/gradeflow/internal/domain/resolve"
	"github.com/okian/gradeflow/pkg/logger"
	"github.com/okian/gradeflow/pkg/metrics"
)

// Row-skip reasons, reported in the summary and on metrics labels.
const (
	SkipEntityNotFound  = "entity_not_found"
	SkipNoQuestionMatch = "no_question_match"
	SkipInvalidScale    = "invalid_scale"
	SkipUnknownParam    = "unknown_parameter"
)

// BatchResult summarizes one assessment type's batch.
type BatchResult struct {
	Type      model.AssessmentType
	RowsSeen  int
	Processed int
	Skipped   map[string]int
	Written   int
	Duration  time.Duration
}

// SkipRatio returns skipped rows over rows seen, 0 for an empty batch.
func (b *BatchResult) SkipRatio() float64 {
	if b.RowsSeen == 0 {
		return 0
	}
	skipped := 0
	for _, n := range b.Skipped {
		skipped += n
	}
	return float64(skipped) / float64(b.RowsSeen)
}

func (b *BatchResult) skip(reason string) {
	b.Skipped[reason]++
	metrics.RecordRowSkipped(string(b.Type), reason)
}

// Summary is the user-visible outcome of a run.
type Summary struct {
	Batches  []BatchResult
	PeerRows int
	TermRows int
	Audit    *Audit
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// Service implements the pipeline over a datastore and a workbook reader.
type Service struct {
	cfg    *config.Config
	store  repository.Store
	logger logger.Logger
}

// New constructs a Service. The datastore is the only injected
// collaborator; readers, matchers and normalizers are built per run from
// config and reference data.
func New(cfg *config.Config, store repository.Store, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		store: store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the full pipeline. Reference-data loading is fail-fast:
// nothing is parsed or written if it errors. Row-level failures skip the
// row and continue; each assessment type is written in its own
// transaction, so a late write failure leaves earlier types committed
// (documented limitation, acceptable because runs are idempotent).
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	if s.logger == nil {
		s.logger = logger.Get()
	}

	ref, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	s.logger.Info(ctx, "reference data loaded",
		logger.Int("students", len(ref.Students)),
		logger.Int("projects", len(ref.Projects)),
		logger.Int("parameters", len(ref.Parameters)),
		logger.Int("questions", len(ref.Questions)),
	)

	summary := &Summary{Audit: NewAudit()}
	resolver := resolve.New(ref)

	if len(s.cfg.SelfSources) > 0 {
		batch, err := s.runSelf(ctx, ref, resolver, summary.Audit)
		if err != nil {
			return summary, err
		}
		summary.Batches = append(summary.Batches, *batch)
	}

	if s.cfg.Mentor.File != "" {
		batch, err := s.runMentor(ctx, ref, resolver, summary.Audit)
		if err != nil {
			return summary, err
		}
		summary.Batches = append(summary.Batches, *batch)
	}

	if s.cfg.Peer.File != "" {
		n, err := s.runPeer(ctx, resolver, summary.Audit)
		if err != nil {
			return summary, err
		}
		summary.PeerRows = n
	}

	if s.cfg.Term.File != "" {
		n, err := s.runTerm(ctx, resolver, summary.Audit)
		if err != nil {
			return summary, err
		}
		summary.TermRows = n
	}

	return summary, nil
}

// runSelf processes all self-assessment response forms into one batch.
// The aggregator spans sources: the same (student, project, parameter)
// can be probed by several question columns and several files.
func (s *Service) runSelf(ctx context.Context, ref *model.RefData, resolver *resolve.Resolver, audit *Audit) (*BatchResult, error) {
	start := time.Now()
	batch := &BatchResult{Type: model.TypeSelf, Skipped: make(map[string]int)}

	matcher := match.New(ref.Questions,
		match.WithThreshold(s.cfg.MatchThreshold),
		match.WithPrefixLength(s.cfg.MatchPrefixLength),
	)
	agg := aggregate.New()

	for _, src := range s.cfg.SelfSources {
		reader := workbook.NewReader(
			workbook.WithNameColumns(s.cfg.NameColumns),
			workbook.WithSkipColumns(src.SkipColumns),
		)
		rows, err := reader.ReadResponses(src.File)
		if err != nil {
			return batch, fmt.Errorf("read %s: %w", src.File, err)
		}

		projectID, err := resolver.Project(src.Project)
		if err != nil {
			return batch, fmt.Errorf("self source %s: project %q: %w", src.File, src.Project, err)
		}

		normalizer := normalize.New(
			normalize.WithTargetScale(s.cfg.TargetScaleMin, s.cfg.TargetScaleMax),
			normalize.WithDecimalShift(src.DecimalShift),
		)

		for _, row := range rows {
			batch.RowsSeen++

			studentID, err := resolver.Student(row.StudentName)
			if err != nil {
				batch.skip(SkipEntityNotFound)
				audit.Drop(batch.Type, row.SourceFile, row.StudentName,
					fmt.Sprintf("student %q not found", row.StudentName))
				s.logger.Warn(ctx, "student not resolved",
					logger.String("name", row.StudentName),
					logger.String("source", row.SourceFile),
				)
				continue
			}

			matched, err := matcher.Match(row.QuestionText, src.Project)
			if err != nil {
				batch.skip(SkipNoQuestionMatch)
				var nm *match.NoMatchError
				detail := err.Error()
				if errors.As(err, &nm) {
					detail = fmt.Sprintf("question %q: best candidate %q (ratio %.2f)",
						nm.Attempted, nm.BestText, nm.BestRatio)
				}
				audit.Drop(batch.Type, row.SourceFile, row.StudentName, detail)
				s.logger.Warn(ctx, "question not matched",
					logger.String("question", row.QuestionText),
					logger.String("project", src.Project),
					logger.Error(err),
				)
				continue
			}

			res, err := normalizer.Normalize(row.RawScore, src.ScaleMin, src.ScaleMax)
			if err != nil {
				batch.skip(SkipInvalidScale)
				audit.Drop(batch.Type, row.SourceFile, row.StudentName, err.Error())
				continue
			}
			s.auditAdjustment(batch.Type, row.SourceFile, row.StudentName, row.RawScore, res, audit)

			s.addToAggregate(ctx, agg, aggregate.Input{
				Key: aggregate.Key{
					StudentID:   studentID,
					ProjectID:   projectID,
					ParameterID: matched.ParameterID,
					Type:        model.TypeSelf,
				},
				QuestionID: matched.QuestionID,
				RawScore:   res.Raw,
				Normalized: res.Normalized,
				ScaleMin:   src.ScaleMin,
				ScaleMax:   src.ScaleMax,
				SourceFile: row.SourceFile,
			})
			batch.Processed++
			metrics.RecordRowProcessed(string(batch.Type))
		}
	}

	return s.finishBatch(ctx, batch, agg, audit, start)
}

// runMentor processes the mentor assessment matrix. Matrix rows carry
// (domain, ordinal) directly, so no question matching happens here.
func (s *Service) runMentor(ctx context.Context, ref *model.RefData, resolver *resolve.Resolver, audit *Audit) (*BatchResult, error) {
	start := time.Now()
	batch := &BatchResult{Type: model.TypeMentor, Skipped: make(map[string]int)}

	reader := workbook.NewReader(workbook.WithNameColumns(s.cfg.NameColumns))
	rows, err := reader.ReadMatrix(s.cfg.Mentor.File, s.cfg.Mentor.Tabs, resolver)
	if err != nil {
		return batch, fmt.Errorf("read %s: %w", s.cfg.Mentor.File, err)
	}

	agg := aggregate.New()
	for _, row := range rows {
		batch.RowsSeen++

		projectID, err := resolver.Project(row.ProjectName)
		if err != nil {
			batch.skip(SkipEntityNotFound)
			audit.Drop(batch.Type, row.SourceFile, row.StudentID,
				fmt.Sprintf("project %q not found", row.ProjectName))
			continue
		}

		param, ok := ref.ParameterByDomainOrdinal(row.DomainShort, row.Ordinal)
		if !ok {
			batch.skip(SkipUnknownParam)
			audit.Drop(batch.Type, row.SourceFile, row.StudentID,
				fmt.Sprintf("no parameter %s/%d", row.DomainShort, row.Ordinal))
			continue
		}

		scaleMax := s.cfg.Mentor.DefaultScaleMax
		if v, ok := s.cfg.Mentor.Scales[row.ProjectName]; ok {
			scaleMax = v
		}
		normalizer := normalize.New(
			normalize.WithTargetScale(s.cfg.TargetScaleMin, s.cfg.TargetScaleMax),
			normalize.WithDecimalShift(s.cfg.Mentor.DecimalShift),
		)
		res, err := normalizer.Normalize(row.RawScore, 1, scaleMax)
		if err != nil {
			batch.skip(SkipInvalidScale)
			audit.Drop(batch.Type, row.SourceFile, row.StudentID, err.Error())
			continue
		}
		s.auditAdjustment(batch.Type, row.SourceFile, row.StudentID, row.RawScore, res, audit)

		s.addToAggregate(ctx, agg, aggregate.Input{
			Key: aggregate.Key{
				StudentID:   row.StudentID,
				ProjectID:   projectID,
				ParameterID: param.ID,
				Type:        model.TypeMentor,
			},
			RawScore:   res.Raw,
			Normalized: res.Normalized,
			ScaleMin:   1,
			ScaleMax:   scaleMax,
			SourceFile: row.SourceFile,
		})
		batch.Processed++
		metrics.RecordRowProcessed(string(batch.Type))
	}

	return s.finishBatch(ctx, batch, agg, audit, start)
}

// addToAggregate feeds the aggregator and counts merges into existing keys.
func (s *Service) addToAggregate(ctx context.Context, agg *aggregate.Aggregator, in aggregate.Input) {
	before := agg.Len()
	agg.Add(ctx, in)
	if agg.Len() == before {
		metrics.RecordDuplicateMerge()
	}
}

// auditAdjustment records clamp and decimal-shift corrections.
func (s *Service) auditAdjustment(typ model.AssessmentType, source, subject string, original float64, res normalize.Result, audit *Audit) {
	switch res.Adjustment {
	case normalize.AdjustClamped:
		metrics.RecordScoreClamp()
		audit.Correction(typ, source, subject, res.Adjustment, original, res.Raw)
	case normalize.AdjustDecimalShift:
		metrics.RecordScoreDecimalShift()
		audit.Correction(typ, source, subject, res.Adjustment, original, res.Raw)
	case normalize.AdjustNone:
	}
}

// finishBatch enforces the skip tolerance, records duplicates, and writes
// the batch in one destructive replace scoped to its type.
func (s *Service) finishBatch(ctx context.Context, batch *BatchResult, agg *aggregate.Aggregator, audit *Audit, start time.Time) (*BatchResult, error) {
	if s.cfg.MaxSkipRatio > 0 && batch.SkipRatio() > s.cfg.MaxSkipRatio {
		return batch, fmt.Errorf("%w: %s: %.0f%% of rows skipped",
			ErrSkipTolerance, batch.Type, batch.SkipRatio()*100)
	}

	for key, count := range agg.Duplicates() {
		audit.Merge(key, count)
	}

	records := agg.Records(ctx)
	if err := s.store.ReplaceAssessments(ctx, batch.Type, records); err != nil {
		return batch, fmt.Errorf("write %s batch: %w", batch.Type, err)
	}
	batch.Written = len(records)
	batch.Duration = time.Since(start)
	metrics.RecordRecordsWritten(string(batch.Type), batch.Written)
	metrics.RecordBatchDuration(string(batch.Type), batch.Duration.Seconds())

	s.logger.Info(ctx, "batch written",
		logger.String("type", string(batch.Type)),
		logger.Int("rows_seen", batch.RowsSeen),
		logger.Int("processed", batch.Processed),
		logger.Int("written", batch.Written),
	)
	return batch, nil
}

// runPeer loads the peer feedback form at its native grain; no score
// aggregation applies, rows upsert on (recipient, giver, project).
func (s *Service) runPeer(ctx context.Context, resolver *resolve.Resolver, audit *Audit) (int, error) {
	reader := workbook.NewReader()
	rows, err := reader.ReadPeerForm(s.cfg.Peer.File, s.cfg.Peer.Sheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.cfg.Peer.File, err)
	}

	var out []model.PeerFeedback
	for _, row := range rows {
		giverID, gErr := resolver.Student(row.GiverName)
		recipientID, rErr := resolver.Student(row.RecipientName)
		projectID, pErr := resolver.Project(row.ProjectName)
		if gErr != nil || rErr != nil || pErr != nil {
			metrics.RecordRowSkipped(string(model.TypePeer), SkipEntityNotFound)
			audit.Drop(model.TypePeer, s.cfg.Peer.File, row.GiverName,
				fmt.Sprintf("unresolved entity in (%q, %q, %q)",
					row.GiverName, row.RecipientName, row.ProjectName))
			continue
		}
		out = append(out, model.PeerFeedback{
			RecipientID:   recipientID,
			GiverID:       giverID,
			ProjectID:     projectID,
			QualityOfWork: row.QualityOfWork,
			Initiative:    row.Initiative,
			Communication: row.Communication,
			Collaboration: row.Collaboration,
			GrowthMindset: row.GrowthMindset,
		})
	}

	if err := s.store.UpsertPeerFeedback(ctx, out); err != nil {
		return 0, fmt.Errorf("write peer feedback: %w", err)
	}
	s.logger.Info(ctx, "peer feedback written", logger.Int("rows", len(out)))
	return len(out), nil
}

// runTerm loads the term report; rows upsert on (student, term).
func (s *Service) runTerm(ctx context.Context, resolver *resolve.Resolver, audit *Audit) (int, error) {
	reader := workbook.NewReader()
	rows, err := reader.ReadTermReport(s.cfg.Term.File, s.cfg.Term.Sheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.cfg.Term.File, err)
	}

	var out []model.TermRecord
	for _, row := range rows {
		studentID, err := resolver.Student(row.StudentName)
		if err != nil {
			audit.Drop("term", s.cfg.Term.File, row.StudentName,
				fmt.Sprintf("student %q not found", row.StudentName))
			continue
		}
		out = append(out, model.TermRecord{
			StudentID:       studentID,
			Term:            s.cfg.Term.Term,
			CBPCount:        row.CBPCount,
			ConflexionCount: row.ConflexionCount,
			BOWScore:        row.BOWScore,
		})
	}

	if err := s.store.UpsertTermRecords(ctx, out); err != nil {
		return 0, fmt.Errorf("write term records: %w", err)
	}
	s.logger.Info(ctx, "term records written", logger.Int("rows", len(out)))
	return len(out), nil
}
