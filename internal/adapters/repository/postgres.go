package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/okian/gradeflow/internal/domain/model"
)

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 100

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithInsertBatchSize overrides the rows-per-statement batch size.
func WithInsertBatchSize(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// PostgresStore implements Store against PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	batchSize int
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		batchSize: insertBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load bulk-fetches all reference tables. One query per table, never one
// per row.
func (s *PostgresStore) Load(ctx context.Context) (*model.RefData, error) {
	ref := &model.RefData{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, canonical_name, COALESCE(aliases, '{}') FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: students: %v", ErrRefLoad, err)
	}
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.CanonicalName, pq.Array(&st.Aliases)); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan student: %v", ErrRefLoad, err)
		}
		ref.Students = append(ref.Students, st)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: students: %v", ErrRefLoad, err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(internal_name, '') FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: projects: %v", ErrRefLoad, err)
	}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.InternalName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan project: %v", ErrRefLoad, err)
		}
		ref.Projects = append(ref.Projects, p)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: projects: %v", ErrRefLoad, err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, short_name FROM readiness_domains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: readiness_domains: %v", ErrRefLoad, err)
	}
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.ShortName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan domain: %v", ErrRefLoad, err)
		}
		ref.Domains = append(ref.Domains, d)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: readiness_domains: %v", ErrRefLoad, err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, domain_id, param_number, name, COALESCE(description, '')
		 FROM readiness_parameters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: readiness_parameters: %v", ErrRefLoad, err)
	}
	for rows.Next() {
		var p model.Parameter
		if err := rows.Scan(&p.ID, &p.DomainID, &p.Ordinal, &p.Name, &p.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan parameter: %v", ErrRefLoad, err)
		}
		ref.Parameters = append(ref.Parameters, p)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: readiness_parameters: %v", ErrRefLoad, err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, parameter_id, project_context, question_text, rating_scale_max
		 FROM self_assessment_questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: self_assessment_questions: %v", ErrRefLoad, err)
	}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ParameterID, &q.ProjectContext, &q.Text, &q.ScaleMax); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan question: %v", ErrRefLoad, err)
		}
		ref.Questions = append(ref.Questions, q)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: self_assessment_questions: %v", ErrRefLoad, err)
	}

	return ref, nil
}

// ReplaceAssessments deletes the type's existing rows and inserts the new
// batch in one transaction. Source spreadsheets may have been corrected
// between runs, so the replace is destructive rather than incremental; the
// delete predicate is scoped to typ so other types survive.
func (s *PostgresStore) ReplaceAssessments(ctx context.Context, typ model.AssessmentType, records []model.Record) error {
	if !typ.Valid() {
		return fmt.Errorf("%w: unknown assessment type %q", ErrWrite, typ)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assessments WHERE assessment_type = $1`, string(typ)); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrWrite, typ, err)
	}

	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.insertBatch(ctx, tx, records[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", ErrWrite, typ, err)
	}
	return nil
}

// insertBatch writes one multi-row INSERT with upsert semantics on the
// record uniqueness key.
func (s *PostgresStore) insertBatch(ctx context.Context, tx *sql.Tx, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	const cols = 11
	var (
		placeholders strings.Builder
		args         = make([]interface{}, 0, len(records)*cols)
	)
	for i, r := range records {
		if i > 0 {
			placeholders.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&placeholders, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11)
		args = append(args,
			r.StudentID, r.ProjectID, r.ParameterID, string(r.Type),
			nullString(r.QuestionID), r.RawScore, r.ScaleMin, r.ScaleMax,
			r.Normalized, r.SourceCount, r.SourceFile,
		)
	}

	query := `
		INSERT INTO assessments (
			student_id, project_id, parameter_id, assessment_type,
			self_assessment_question_id, raw_score, raw_scale_min, raw_scale_max,
			normalized_score, source_count, source_file
		) VALUES ` + placeholders.String() + `
		ON CONFLICT (student_id, project_id, parameter_id, assessment_type) DO UPDATE SET
			self_assessment_question_id = EXCLUDED.self_assessment_question_id,
			raw_score = EXCLUDED.raw_score,
			raw_scale_min = EXCLUDED.raw_scale_min,
			raw_scale_max = EXCLUDED.raw_scale_max,
			normalized_score = EXCLUDED.normalized_score,
			source_count = EXCLUDED.source_count,
			source_file = EXCLUDED.source_file
	`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert assessments: %v", ErrWrite, err)
	}
	return nil
}

// UpsertPeerFeedback writes peer rows at their native grain.
func (s *PostgresStore) UpsertPeerFeedback(ctx context.Context, rows []model.PeerFeedback) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `
		INSERT INTO peer_feedback (
			recipient_id, giver_id, project_id,
			quality_of_work, initiative_ownership, communication, collaboration, growth_mindset
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (recipient_id, giver_id, project_id) DO UPDATE SET
			quality_of_work = EXCLUDED.quality_of_work,
			initiative_ownership = EXCLUDED.initiative_ownership,
			communication = EXCLUDED.communication,
			collaboration = EXCLUDED.collaboration,
			growth_mindset = EXCLUDED.growth_mindset
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: prepare peer_feedback: %v", ErrWrite, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.RecipientID, r.GiverID, r.ProjectID,
			nullInt(r.QualityOfWork), nullInt(r.Initiative), nullInt(r.Communication),
			nullInt(r.Collaboration), nullInt(r.GrowthMindset),
		); err != nil {
			return fmt.Errorf("%w: upsert peer_feedback: %v", ErrWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit peer_feedback: %v", ErrWrite, err)
	}
	return nil
}

// UpsertTermRecords writes term tracking rows at (student, term) grain.
func (s *PostgresStore) UpsertTermRecords(ctx context.Context, rows []model.TermRecord) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `
		INSERT INTO term_tracking (student_id, term, cbp_count, conflexion_count, bow_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, term) DO UPDATE SET
			cbp_count = EXCLUDED.cbp_count,
			conflexion_count = EXCLUDED.conflexion_count,
			bow_score = EXCLUDED.bow_score
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: prepare term_tracking: %v", ErrWrite, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.StudentID, r.Term, r.CBPCount, r.ConflexionCount, r.BOWScore,
		); err != nil {
			return fmt.Errorf("%w: upsert term_tracking: %v", ErrWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit term_tracking: %v", ErrWrite, err)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
