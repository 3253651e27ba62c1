package workbook

import (
	"fmt"
	"sort"
	"strings"
)

// StudentResolver identifies student columns while walking the matrix.
// Satisfied by resolve.Resolver.
type StudentResolver interface {
	Student(name string) (string, error)
}

// MatrixRow is one (student, parameter) score cell from the mentor matrix,
// already pinned to a parameter by (domain short name, ordinal) rather
// than by question text; the matrix has no questions.
type MatrixRow struct {
	StudentID   string
	ProjectName string
	DomainShort string
	Ordinal     int
	RawScore    float64
	Sheet       string
	SourceFile  string
}

// matrixHeaderScanDepth is how many body cells of a column are tried when
// the column header itself does not resolve to a student.
const matrixHeaderScanDepth = 5

// defaultDomainNames maps matrix section headers to domain short names.
// "operations readiness" appears in some tabs where others say
// "operational readiness"; both map to the same domain.
func defaultDomainNames() map[string]string {
	return map[string]string{
		"commercial readiness":      "commercial",
		"entrepreneurial readiness": "entrepreneurial",
		"marketing readiness":       "marketing",
		"innovation readiness":      "innovation",
		"operational readiness":     "operational",
		"operations readiness":      "operational",
		"professional readiness":    "professional",
	}
}

// WithDomainNames overrides the matrix section header map.
func WithDomainNames(names map[string]string) Option {
	return func(r *Reader) {
		if len(names) > 0 {
			r.domainNames = names
		}
	}
}

// ReadMatrix parses the mentor assessment matrix. tabs maps sheet names to
// project names; unlisted sheets are ignored. Rows alternate between
// domain section headers and parameter rows carrying a leading "1."-"4."
// ordinal; scores sit under student columns. Cells holding NA tokens or
// non-numeric text are skipped.
func (r *Reader) ReadMatrix(path string, tabs map[string]string, students StudentResolver) ([]MatrixRow, error) {
	f, err := excelizeOpen(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []MatrixRow
	for _, sheet := range f.GetSheetList() {
		projectName, ok := tabs[sheet]
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadSheet, path, sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		header := rows[0]
		body := rows[1:]
		studentCols := r.matrixStudentColumns(header, body, students)
		colOrder := make([]int, 0, len(studentCols))
		for col := range studentCols {
			colOrder = append(colOrder, col)
		}
		sort.Ints(colOrder)

		// The header cell of column 0 can itself be a domain section name.
		currentDomain := r.domainFor(cell(header, 0))

		for _, row := range body {
			label := strings.ToLower(strings.TrimSpace(cell(row, 0)))
			if d := r.domainFor(label); d != "" {
				currentDomain = d
				continue
			}
			ordinal := parameterOrdinal(label)
			if currentDomain == "" || ordinal == 0 {
				continue
			}
			for _, col := range colOrder {
				score, ok := parseScore(cell(row, col))
				if !ok {
					continue
				}
				out = append(out, MatrixRow{
					StudentID:   studentCols[col],
					ProjectName: projectName,
					DomainShort: currentDomain,
					Ordinal:     ordinal,
					RawScore:    score,
					Sheet:       sheet,
					SourceFile:  path,
				})
			}
		}
	}
	return out, nil
}

// matrixStudentColumns maps column index to student id. A column belongs
// to a student when its header resolves, or failing that, when one of its
// first few body cells does.
func (r *Reader) matrixStudentColumns(header []string, body [][]string, students StudentResolver) map[int]string {
	cols := make(map[int]string)
	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	for col := 1; col < width; col++ {
		if id, err := students.Student(cell(header, col)); err == nil {
			cols[col] = id
			continue
		}
		for i := 0; i < matrixHeaderScanDepth && i < len(body); i++ {
			if id, err := students.Student(cell(body[i], col)); err == nil {
				cols[col] = id
				break
			}
		}
	}
	return cols
}

// domainFor maps a row label to a domain short name, matching exactly or
// by prefix ("Commercial Readiness (avg)" still counts).
func (r *Reader) domainFor(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return ""
	}
	for header, short := range r.domainNames {
		if l == header || strings.HasPrefix(l, header) {
			return short
		}
	}
	return ""
}

// parameterOrdinal extracts the leading parameter number from labels like
// "2. Budgeting & Forecasting"; 0 means the row is not a parameter row.
func parameterOrdinal(label string) int {
	if len(label) < 2 || label[1] != '.' {
		return 0
	}
	if label[0] < '1' || label[0] > '4' {
		return 0
	}
	return int(label[0] - '0')
}
