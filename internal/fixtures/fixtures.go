// Package fixtures generates sample assessment workbooks for local runs
// and demos. The output mirrors the real forms closely enough to exercise
// every reader: a self-assessment response sheet, a mentor matrix with
// domain section rows, a peer feedback form, and a term report.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/okian/gradeflow/pkg/logger"
)

// Score generation ranges on the common 1-10 scale.
const (
	scoreMin   = 1.0
	scoreRange = 9.0
	selfScale  = 5
	peerScale  = 10
)

// Default cohort used when the caller supplies none.
var defaultStudents = []string{
	"Amara Osei", "Ben Carter", "Chiara Rossi", "Daniel Kim",
	"Elif Demir", "Farai Moyo", "Grace Lin", "Hugo Martin",
}

var defaultQuestions = []string{
	"I can plan my work and manage my time effectively.",
	"I reflect on feedback and improve my work.",
	"I can explain my project decisions to others.",
	"I take initiative when the next step is unclear.",
}

var defaultDomains = []string{
	"Commercial Readiness", "Operational Readiness", "Professional Readiness",
}

// Generator writes fixture workbooks into a directory.
type Generator struct {
	dir      string
	project  string
	students []string
	rng      *rand.Rand
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithStudents overrides the default cohort.
func WithStudents(names []string) Option {
	return func(g *Generator) {
		if len(names) > 0 {
			g.students = names
		}
	}
}

// WithSeed makes the generated scores reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Generator writing into dir for the named project.
func New(dir, project string, opts ...Option) *Generator {
	g := &Generator{
		dir:      dir,
		project:  project,
		students: defaultStudents,
		rng:      rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// All generates every workbook kind and returns the written paths.
func (g *Generator) All(ctx context.Context) ([]string, error) {
	kinds := []struct {
		name  string
		write func(string) error
	}{
		{"self_assessment.xlsx", g.writeSelf},
		{"mentor_matrix.xlsx", g.writeMatrix},
		{"peer_feedback.xlsx", g.writePeer},
		{"term_report.xlsx", g.writeTerm},
	}

	paths := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		path := filepath.Join(g.dir, kind.name)
		if err := kind.write(path); err != nil {
			return paths, fmt.Errorf("generate %s: %w", kind.name, err)
		}
		logger.Get().Info(ctx, "fixture written", logger.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *Generator) score(max int) int {
	return 1 + g.rng.Intn(max)
}

func (g *Generator) writeSelf(path string) error {
	header := []interface{}{"Timestamp", "Your Name", "Email Address"}
	for _, q := range defaultQuestions {
		header = append(header, q)
	}
	rows := [][]interface{}{header}
	for i, name := range g.students {
		row := []interface{}{
			fmt.Sprintf("2024-03-%02d 10:00:00", i+1),
			name,
			fmt.Sprintf("student%d@example.com", i+1),
		}
		for range defaultQuestions {
			row = append(row, g.score(selfScale))
		}
		rows = append(rows, row)
	}
	return writeSheet(path, "Form Responses 1", rows)
}

func (g *Generator) writeMatrix(path string) error {
	header := []interface{}{""}
	for _, name := range g.students {
		header = append(header, name)
	}
	rows := [][]interface{}{header}
	for _, domain := range defaultDomains {
		rows = append(rows, []interface{}{domain})
		for ordinal := 1; ordinal <= 4; ordinal++ {
			row := []interface{}{fmt.Sprintf("%d. Parameter %d", ordinal, ordinal)}
			for range g.students {
				row = append(row, g.score(peerScale))
			}
			rows = append(rows, row)
		}
	}
	return writeSheet(path, g.project, rows)
}

func (g *Generator) writePeer(path string) error {
	rows := [][]interface{}{{
		"Your Name", "Recipient Name", "Project Name",
		"Quality of Work", "Initiative", "Communication", "Collaboration", "Growth Mindset",
	}}
	for i, giver := range g.students {
		recipient := g.students[(i+1)%len(g.students)]
		rows = append(rows, []interface{}{
			giver, recipient, g.project,
			g.score(peerScale), g.score(peerScale), g.score(peerScale),
			g.score(peerScale), g.score(peerScale),
		})
	}
	return writeSheet(path, "Form Responses 1", rows)
}

func (g *Generator) writeTerm(path string) error {
	rows := [][]interface{}{{"Student Name", "CBP Sessions", "Conflexion Count", "BOW Score"}}
	for _, name := range g.students {
		rows = append(rows, []interface{}{
			name, g.rng.Intn(6), g.rng.Intn(4), g.score(peerScale),
		})
	}
	return writeSheet(path, "Tracking", rows)
}

func writeSheet(path, sheet string, rows [][]interface{}) error {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return err
	}
	return f.Close()
}
