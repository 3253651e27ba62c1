package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/gradeflow/internal/domain/model"
)

// Memory implements Store in memory, for tests and dry runs. Seed the
// reference data through the Add* helpers, run the pipeline, then inspect
// what was written.
type Memory struct {
	mu  sync.RWMutex
	ref model.RefData

	assessments map[model.AssessmentType][]model.Record
	peer        []model.PeerFeedback
	terms       []model.TermRecord

	failLoad  error
	failWrite error
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithLoadError makes Load fail, for exercising fail-fast behavior.
func WithLoadError(err error) MemoryOption {
	return func(m *Memory) { m.failLoad = err }
}

// WithWriteError makes all writes fail.
func WithWriteError(err error) MemoryOption {
	return func(m *Memory) { m.failWrite = err }
}

// NewMemory constructs an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		assessments: make(map[model.AssessmentType][]model.Record),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddStudent seeds a student and returns it with a generated id.
func (m *Memory) AddStudent(canonical string, aliases ...string) model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Student{ID: uuid.NewString(), CanonicalName: canonical, Aliases: aliases}
	m.ref.Students = append(m.ref.Students, s)
	return s
}

// AddProject seeds a project and returns it with a generated id.
func (m *Memory) AddProject(name, internalName string) model.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Project{ID: uuid.NewString(), Name: name, InternalName: internalName}
	m.ref.Projects = append(m.ref.Projects, p)
	return p
}

// AddDomain seeds a readiness domain and returns it with a generated id.
func (m *Memory) AddDomain(name, shortName string) model.Domain {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := model.Domain{ID: uuid.NewString(), Name: name, ShortName: shortName}
	m.ref.Domains = append(m.ref.Domains, d)
	return d
}

// AddParameter seeds a readiness parameter and returns it with a generated id.
func (m *Memory) AddParameter(domainID string, ordinal int, name string) model.Parameter {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Parameter{ID: uuid.NewString(), DomainID: domainID, Ordinal: ordinal, Name: name}
	m.ref.Parameters = append(m.ref.Parameters, p)
	return p
}

// AddQuestion seeds a self-assessment question and returns it with a
// generated id.
func (m *Memory) AddQuestion(parameterID, projectContext, text string, scaleMax float64) model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := model.Question{
		ID:             uuid.NewString(),
		ParameterID:    parameterID,
		ProjectContext: projectContext,
		Text:           text,
		ScaleMax:       scaleMax,
	}
	m.ref.Questions = append(m.ref.Questions, q)
	return q
}

// Load returns a copy of the seeded reference data.
func (m *Memory) Load(_ context.Context) (*model.RefData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failLoad != nil {
		return nil, m.failLoad
	}
	ref := m.ref
	return &ref, nil
}

// ReplaceAssessments swaps the type's records for the new batch.
func (m *Memory) ReplaceAssessments(_ context.Context, typ model.AssessmentType, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.assessments[typ] = append([]model.Record(nil), records...)
	return nil
}

// UpsertPeerFeedback replaces rows sharing a (recipient, giver, project)
// key and appends the rest.
func (m *Memory) UpsertPeerFeedback(_ context.Context, rows []model.PeerFeedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for _, row := range rows {
		replaced := false
		for i, existing := range m.peer {
			if existing.RecipientID == row.RecipientID &&
				existing.GiverID == row.GiverID &&
				existing.ProjectID == row.ProjectID {
				m.peer[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			m.peer = append(m.peer, row)
		}
	}
	return nil
}

// UpsertTermRecords replaces rows sharing a (student, term) key and
// appends the rest.
func (m *Memory) UpsertTermRecords(_ context.Context, rows []model.TermRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for _, row := range rows {
		replaced := false
		for i, existing := range m.terms {
			if existing.StudentID == row.StudentID && existing.Term == row.Term {
				m.terms[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			m.terms = append(m.terms, row)
		}
	}
	return nil
}

// Assessments returns the stored records for a type.
func (m *Memory) Assessments(typ model.AssessmentType) []model.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Record(nil), m.assessments[typ]...)
}

// PeerFeedback returns the stored peer rows.
func (m *Memory) PeerFeedback() []model.PeerFeedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.PeerFeedback(nil), m.peer...)
}

// TermRecords returns the stored term rows.
func (m *Memory) TermRecords() []model.TermRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.TermRecord(nil), m.terms...)
}
