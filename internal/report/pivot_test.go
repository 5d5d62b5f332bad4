package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivot(t *testing.T) {
	table := mustRead(t, csvHeader+
		"a,gnu,10,10,10,5,5,5,1,1,1\n"+
		"a,mimalloc,5,5,5,3,3,3,1,1,1\n"+
		"b,gnu,2,2,2,1,1,1,1,1,1\n")

	m := table.Pivot()
	require.Equal(t, []string{"a", "b"}, m.Commands)
	require.Equal(t, []string{"gnu", "mimalloc"}, m.Allocators)
	assert.InDelta(t, 10, m.Values[0][0], 1e-9)
	assert.InDelta(t, 5, m.Values[0][1], 1e-9)
	assert.InDelta(t, 2, m.Values[1][0], 1e-9)
	// b never ran under mimalloc
	assert.True(t, math.IsNaN(m.Values[1][1]))

	assert.True(t, m.HasAllocator("gnu"))
	assert.False(t, m.HasAllocator("jemalloc"))
}

func TestNormalizeBaselineColumnIsUnity(t *testing.T) {
	table := mustRead(t, csvHeader+
		"a,gnu,10,10,10,5,5,5,1,1,1\n"+
		"a,mimalloc,4,4,4,3,3,3,1,1,1\n"+
		"b,gnu,2,2,2,1,1,1,1,1,1\n"+
		"b,mimalloc,3,3,3,1,1,1,1,1,1\n")

	rel, err := table.Pivot().Normalize("gnu")
	require.NoError(t, err)
	for i := range rel.Commands {
		assert.InDelta(t, 1.0, rel.Values[i][0], 1e-9)
	}
	assert.InDelta(t, 0.4, rel.Values[0][1], 1e-9)
	assert.InDelta(t, 1.5, rel.Values[1][1], 1e-9)
}

func TestNormalizeMissingBaseline(t *testing.T) {
	table := mustRead(t, csvHeader+
		"a,mimalloc,4,4,4,3,3,3,1,1,1\n")
	_, err := table.Pivot().Normalize("gnu")
	assert.ErrorIs(t, err, ErrBaselineMissing)
}

func TestBounds(t *testing.T) {
	m := &Matrix{Values: [][]float64{
		{0.5, math.NaN()},
		{2.5, 1.0},
	}}
	min, max := m.Bounds()
	assert.InDelta(t, 0.5, min, 1e-9)
	assert.InDelta(t, 2.5, max, 1e-9)
}
