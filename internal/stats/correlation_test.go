package stats

import (
	"context"
	"math/rand"
	"testing"

	mstats "github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTable(seed int64, rows, cols int) Table {
	rng := rand.New(rand.NewSource(seed))
	t := Table{Columns: make([]string, cols), Rows: make([][]float64, rows)}
	for c := range t.Columns {
		t.Columns[c] = string(rune('A' + c))
	}
	for r := range t.Rows {
		row := make([]float64, cols)
		base := rng.NormFloat64()
		for c := range row {
			// mix a shared factor in so columns are correlated to varying degrees
			row[c] = base*float64(c) + rng.NormFloat64()*float64(cols-c) + float64(c*10)
		}
		t.Rows[r] = row
	}
	return t
}

func column(t Table, c int) []float64 {
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[c]
	}
	return out
}

func TestCorrelateProperties(t *testing.T) {
	tab := randomTable(7, 157, 5)
	m, err := Correlate(context.Background(), tab, Options{Workers: 3, ChunkRows: 16})
	require.NoError(t, err)
	require.Equal(t, 5, m.Dim())
	assert.Equal(t, tab.Columns, m.Columns)

	for i := 0; i < m.Dim(); i++ {
		assert.Equal(t, 1.0, m.At(i, i), "diagonal %d", i)
		for j := 0; j < m.Dim(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i), "symmetry %d,%d", i, j)
			assert.GreaterOrEqual(t, m.At(i, j), -1.0)
			assert.LessOrEqual(t, m.At(i, j), 1.0)
		}
	}
}

func TestCorrelateMatchesReferenceLibrary(t *testing.T) {
	tab := randomTable(11, 64, 4)
	m, err := Correlate(context.Background(), tab, Options{})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			want, err := mstats.Pearson(column(tab, i), column(tab, j))
			require.NoError(t, err)
			assert.InDelta(t, want, m.At(i, j), 1e-9, "pair %d,%d", i, j)
		}
	}
}

func TestCorrelateIdenticalColumns(t *testing.T) {
	tab := Table{
		Columns: []string{"A", "B", "C"},
		Rows: [][]float64{
			{1, 1, 9}, {2, 2, 4}, {4, 4, 7}, {8, 8, 1},
		},
	}
	m, err := Correlate(context.Background(), tab, Options{})
	require.NoError(t, err)
	r, ok := m.Lookup("A", "B")
	require.True(t, ok)
	assert.Equal(t, 1.0, r)

	_, ok = m.Lookup("A", "Z")
	assert.False(t, ok)
}

func TestCorrelatePerfectNegative(t *testing.T) {
	tab := Table{Columns: []string{"x", "y"}, Rows: [][]float64{{1, 10}, {2, 8}, {3, 6}, {4, 4}}}
	m, err := Correlate(context.Background(), tab, Options{})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, m.At(0, 1), 1e-12)
}

func TestCorrelateConstantColumn(t *testing.T) {
	tab := Table{
		Columns: []string{"Score", "Flat"},
		Rows:    [][]float64{{1, 5}, {2, 5}, {3, 5}},
	}
	_, err := Correlate(context.Background(), tab, Options{})
	require.ErrorIs(t, err, ErrConstantColumn)
	var cc *ConstantColumnError
	require.ErrorAs(t, err, &cc)
	assert.Equal(t, "Flat", cc.Column)

	// The mean of these is not exactly representable as the value itself.
	for _, v := range []float64{0.1, 0.7, 1.1, 3.3} {
		tab := Table{
			Columns: []string{"Score", "Flat"},
			Rows:    [][]float64{{1, v}, {2, v}, {3, v}},
		}
		_, err := Correlate(context.Background(), tab, Options{ChunkRows: 1, Workers: 2})
		require.ErrorIs(t, err, ErrConstantColumn, "value %v", v)
	}
}

func TestCorrelateInsufficientRows(t *testing.T) {
	tab := Table{Columns: []string{"a", "b"}, Rows: [][]float64{{1, 2}}}
	_, err := Correlate(context.Background(), tab, Options{})
	require.ErrorIs(t, err, ErrInsufficientRows)
	var ir *InsufficientRowsError
	require.ErrorAs(t, err, &ir)
	assert.Equal(t, 1, ir.Rows)
}

func TestCorrelateRejectsBadShapes(t *testing.T) {
	_, err := Correlate(context.Background(), Table{}, Options{})
	require.ErrorIs(t, err, ErrNoColumns)

	tab := Table{Columns: []string{"a", "b"}, Rows: [][]float64{{1, 2}, {3}}}
	_, err = Correlate(context.Background(), tab, Options{})
	require.ErrorIs(t, err, ErrRaggedRow)
}

func TestCorrelateDeterministic(t *testing.T) {
	tab := randomTable(3, 500, 6)
	opt := Options{Workers: 4, ChunkRows: 7}
	a, err := Correlate(context.Background(), tab, opt)
	require.NoError(t, err)
	b, err := Correlate(context.Background(), tab, opt)
	require.NoError(t, err)
	assert.Equal(t, a.Values(), b.Values())

	// A different chunking only moves rounding noise.
	c, err := Correlate(context.Background(), tab, Options{Workers: 1, ChunkRows: 1000})
	require.NoError(t, err)
	for i, row := range a.Values() {
		for j, v := range row {
			assert.InDelta(t, v, c.At(i, j), 1e-12)
		}
	}
}

func TestCorrelateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Correlate(ctx, randomTable(1, 10, 2), Options{ChunkRows: 2})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPairIndexCoversUpperTriangle(t *testing.T) {
	k := 6
	seen := map[int]bool{}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			p := pairIndex(i, j, k)
			assert.False(t, seen[p])
			seen[p] = true
		}
	}
	assert.Len(t, seen, k*(k-1)/2)
}
