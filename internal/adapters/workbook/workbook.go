// Package workbook lifts raw rows out of xlsx source files.
//
// Four layouts exist in the source data: self-assessment response forms
// (one row per respondent, one question per column), the mentor assessment
// matrix (one tab per project, students across columns, parameters down
// rows), the peer feedback form, and the term report. Readers do parsing
// only; entity resolution and scoring happen downstream.
package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/gradeflow/internal/domain/model"
)

// Default header heuristics. The name column is guessed from a prioritized
// candidate list; first found wins.
var (
	defaultNameColumns = []string{"Student Name", "Your Name", "Name"}
	defaultSkipColumns = []string{"Timestamp", "Email", "Email Address"}
)

// Option applies a configuration option to a Reader.
type Option func(*Reader)

// WithNameColumns overrides the prioritized name-column candidates.
func WithNameColumns(cols []string) Option {
	return func(r *Reader) {
		if len(cols) > 0 {
			r.nameColumns = cols
		}
	}
}

// WithSkipColumns adds headers to ignore beyond the defaults, e.g.
// free-text reflection prompts that carry no score.
func WithSkipColumns(cols []string) Option {
	return func(r *Reader) {
		r.skipColumns = append(r.skipColumns, cols...)
	}
}

// Reader parses xlsx workbooks.
type Reader struct {
	nameColumns []string
	skipColumns []string
	domainNames map[string]string
}

// NewReader builds a Reader with the default header heuristics.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		nameColumns: defaultNameColumns,
		skipColumns: append([]string(nil), defaultSkipColumns...),
		domainNames: defaultDomainNames(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadResponses parses a response-form workbook: header row first, one
// respondent per row, question text in column headers. Every numeric cell
// outside the name/skip columns becomes one RawResponse. Non-numeric and
// empty cells are skipped per cell, not per row.
func (r *Reader) ReadResponses(path string) ([]model.RawResponse, error) {
	f, err := excelizeOpen(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadSheet, path, sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	nameIdx := r.findNameColumn(headers)
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s: tried %v", ErrNoNameColumn, path, r.nameColumns)
	}

	var out []model.RawResponse
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameIdx))
		if name == "" {
			continue
		}
		for col, header := range headers {
			if col == nameIdx || r.skippable(header) {
				continue
			}
			score, ok := parseScore(cell(row, col))
			if !ok {
				continue
			}
			out = append(out, model.RawResponse{
				StudentName:  name,
				QuestionText: header,
				RawScore:     score,
				SourceFile:   path,
				Sheet:        sheet,
			})
		}
	}
	return out, nil
}

// findNameColumn returns the index of the first candidate present in the
// header row, in candidate priority order, or -1.
func (r *Reader) findNameColumn(headers []string) int {
	for _, want := range r.nameColumns {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

func (r *Reader) skippable(header string) bool {
	h := strings.TrimSpace(header)
	for _, skip := range r.skipColumns {
		if strings.EqualFold(h, strings.TrimSpace(skip)) {
			return true
		}
	}
	return false
}

func excelizeOpen(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenWorkbook, path, err)
	}
	return f, nil
}

// cell returns row[idx] or "" when the row is short; excelize trims
// trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseScore parses a numeric cell, treating the usual not-applicable
// tokens as absent.
func parseScore(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "-":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
