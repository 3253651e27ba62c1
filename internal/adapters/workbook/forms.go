package workbook

import (
	"fmt"
	"math"
	"strings"
)

// PeerRow is one peer feedback response before entity resolution. Metric
// scores are nil when the giver left the cell blank.
type PeerRow struct {
	GiverName     string
	RecipientName string
	ProjectName   string
	QualityOfWork *int
	Initiative    *int
	Communication *int
	Collaboration *int
	GrowthMindset *int
}

// TermRow is one term report line before entity resolution. Missing counts
// read as zero, matching how the report is maintained.
type TermRow struct {
	StudentName     string
	CBPCount        int
	ConflexionCount int
	BOWScore        float64
}

// peerColumn locates a header by prefix after trimming; form exports add
// trailing spaces and parenthetical hints ("Your Name (So we can follow
// up if needed)") that must not break the lookup.
func peerColumn(headers []string, prefix string) int {
	want := strings.ToLower(prefix)
	for i, h := range headers {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), want) {
			return i
		}
	}
	return -1
}

// ReadPeerForm parses the peer feedback form from the named sheet.
func (r *Reader) ReadPeerForm(path, sheet string) ([]PeerRow, error) {
	f, err := excelizeOpen(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrMissingSheet, path, sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	giverIdx := peerColumn(headers, "Your Name")
	recipientIdx := peerColumn(headers, "Recipient Name")
	projectIdx := peerColumn(headers, "Project Name")
	if giverIdx < 0 || recipientIdx < 0 || projectIdx < 0 {
		return nil, fmt.Errorf("%w: %s/%s: peer form headers", ErrNoNameColumn, path, sheet)
	}
	metricIdx := map[string]int{
		"quality":       peerColumn(headers, "Quality of Work"),
		"initiative":    peerColumn(headers, "Initiative"),
		"communication": peerColumn(headers, "Communication"),
		"collaboration": peerColumn(headers, "Collaboration"),
		"growth":        peerColumn(headers, "Growth Mindset"),
	}

	metric := func(row []string, key string) *int {
		idx := metricIdx[key]
		if idx < 0 {
			return nil
		}
		v, ok := parseScore(cell(row, idx))
		if !ok {
			return nil
		}
		n := int(v)
		return &n
	}

	var out []PeerRow
	for _, row := range rows[1:] {
		pr := PeerRow{
			GiverName:     strings.TrimSpace(cell(row, giverIdx)),
			RecipientName: strings.TrimSpace(cell(row, recipientIdx)),
			ProjectName:   strings.TrimSpace(cell(row, projectIdx)),
			QualityOfWork: metric(row, "quality"),
			Initiative:    metric(row, "initiative"),
			Communication: metric(row, "communication"),
			Collaboration: metric(row, "collaboration"),
			GrowthMindset: metric(row, "growth"),
		}
		if pr.GiverName == "" && pr.RecipientName == "" {
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

// ReadTermReport parses the term report from the named sheet.
func (r *Reader) ReadTermReport(path, sheet string) ([]TermRow, error) {
	f, err := excelizeOpen(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrMissingSheet, path, sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	nameIdx := peerColumn(headers, "Student Name")
	cbpIdx := peerColumn(headers, "CBP")
	conflexionIdx := peerColumn(headers, "Conflexion")
	bowIdx := peerColumn(headers, "BOW")
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoNameColumn, path, sheet)
	}

	count := func(row []string, idx int) int {
		if idx < 0 {
			return 0
		}
		v, ok := parseScore(cell(row, idx))
		if !ok {
			return 0
		}
		return int(math.Round(v))
	}

	var out []TermRow
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameIdx))
		if name == "" {
			continue
		}
		tr := TermRow{
			StudentName:     name,
			CBPCount:        count(row, cbpIdx),
			ConflexionCount: count(row, conflexionIdx),
		}
		if bowIdx >= 0 {
			if v, ok := parseScore(cell(row, bowIdx)); ok {
				tr.BOWScore = v
			}
		}
		out = append(out, tr)
	}
	return out, nil
}
