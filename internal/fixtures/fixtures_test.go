package fixtures_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/gradeflow/internal/adapters/workbook"
	"github.com/okian/gradeflow/internal/fixtures"
	"github.com/okian/gradeflow/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type acceptAll struct{}

func (acceptAll) Student(name string) (string, error) { return name, nil }

func TestGeneratedWorkbooksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	gen := fixtures.New(dir, "SDP", fixtures.WithSeed(42))
	paths, err := gen.All(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 4)

	r := workbook.NewReader()

	responses, err := r.ReadResponses(paths[0])
	require.NoError(t, err)
	// 8 students x 4 questions, every cell numeric.
	assert.Len(t, responses, 32)

	matrix, err := r.ReadMatrix(paths[1], map[string]string{"SDP": "SDP"}, acceptAll{})
	require.NoError(t, err)
	// 3 domains x 4 parameters x 8 students.
	assert.Len(t, matrix, 96)
	for _, row := range matrix {
		assert.GreaterOrEqual(t, row.RawScore, 1.0)
		assert.LessOrEqual(t, row.RawScore, 10.0)
	}

	peers, err := r.ReadPeerForm(paths[2], "Form Responses 1")
	require.NoError(t, err)
	assert.Len(t, peers, 8)
	for _, p := range peers {
		assert.NotEqual(t, p.GiverName, p.RecipientName)
		require.NotNil(t, p.QualityOfWork)
	}

	terms, err := r.ReadTermReport(paths[3], "Tracking")
	require.NoError(t, err)
	assert.Len(t, terms, 8)
}

func TestSeedReproducibility(t *testing.T) {
	ctx := context.Background()
	r := workbook.NewReader()

	read := func(dir string) []float64 {
		gen := fixtures.New(dir, "SDP", fixtures.WithSeed(7))
		paths, err := gen.All(ctx)
		require.NoError(t, err)
		rows, err := r.ReadResponses(paths[0])
		require.NoError(t, err)
		scores := make([]float64, len(rows))
		for i, row := range rows {
			scores[i] = row.RawScore
		}
		return scores
	}

	assert.Equal(t, read(t.TempDir()), read(t.TempDir()))
}
