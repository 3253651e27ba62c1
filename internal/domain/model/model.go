// Package model contains domain models passed between layers.
package model

// AssessmentType identifies who produced a raw score.
type AssessmentType string

// Known assessment types.
const (
	TypeSelf   AssessmentType = "self"
	TypeMentor AssessmentType = "mentor"
	TypePeer   AssessmentType = "peer"
)

// Valid reports whether t is one of the known assessment types.
func (t AssessmentType) Valid() bool {
	switch t {
	case TypeSelf, TypeMentor, TypePeer:
		return true
	}
	return false
}

// Student is a reference-data entity. Aliases are matched in registered
// order after the canonical name.
type Student struct {
	ID            string
	CanonicalName string
	Aliases       []string
}

// Project is a reference-data entity. InternalName is an optional alternate
// name used in some source sheets (e.g. "Murder Mystery" for Marketing).
type Project struct {
	ID           string
	Name         string
	InternalName string
}

// Domain is a top-level readiness competency category.
type Domain struct {
	ID        string
	Name      string
	ShortName string
}

// Parameter is a sub-competency within a domain. (DomainID, Ordinal) is
// unique; Ordinal runs 1..4.
type Parameter struct {
	ID          string
	DomainID    string
	Ordinal     int
	Name        string
	Description string
}

// Question is a seeded self-assessment question. The same (project,
// parameter) pair may legitimately carry near-duplicate question texts;
// rows matched to them are averaged downstream, never rejected.
type Question struct {
	ID             string
	ParameterID    string
	ProjectContext string
	Text           string
	ScaleMax       float64
}

// RefData is the immutable reference-data bundle for one run. It is built
// once by a RefSource bulk fetch and passed by reference into each
// component; nothing mutates it after load.
type RefData struct {
	Students   []Student
	Projects   []Project
	Domains    []Domain
	Parameters []Parameter
	Questions  []Question
}

// ParameterByDomainOrdinal returns the parameter with the given domain
// short name and ordinal, or false when no such parameter exists.
func (r *RefData) ParameterByDomainOrdinal(domainShort string, ordinal int) (Parameter, bool) {
	for _, d := range r.Domains {
		if d.ShortName != domainShort {
			continue
		}
		for _, p := range r.Parameters {
			if p.DomainID == d.ID && p.Ordinal == ordinal {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// RawResponse is one (respondent, question, score) cell lifted out of a
// source workbook before any reconciliation.
type RawResponse struct {
	StudentName  string
	QuestionText string
	RawScore     float64
	SourceFile   string
	Sheet        string
}

// Record is the canonical output unit: one normalized score per
// (student, project, parameter, assessment type) key.
type Record struct {
	StudentID   string
	ProjectID   string
	ParameterID string
	Type        AssessmentType
	QuestionID  string // representative source question, empty for mentor rows
	RawScore    float64
	ScaleMin    float64
	ScaleMax    float64
	Normalized  float64
	SourceCount int    // contributing source rows folded into this record
	SourceFile  string // first-seen source, for traceability
}

// PeerFeedback keeps the peer-feedback grain: one row per
// (recipient, giver, project), five 1-5 metric scores, nil when the giver
// left the cell blank.
type PeerFeedback struct {
	RecipientID   string
	GiverID       string
	ProjectID     string
	QualityOfWork *int
	Initiative    *int
	Communication *int
	Collaboration *int
	GrowthMindset *int
}

// TermRecord tracks per-term participation counts for a student.
type TermRecord struct {
	StudentID       string
	Term            string
	CBPCount        int
	ConflexionCount int
	BOWScore        float64
}
