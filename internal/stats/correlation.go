package stats

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Table is a cleaned, fully parsed numeric dataset: Rows[r][c] is the value of
// column Columns[c] in row r.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Matrix is a Pearson correlation matrix over the columns of a Table. It is
// stored as a symmetric matrix, so At(i, j) and At(j, i) read the same cell.
type Matrix struct {
	Columns []string
	sym     *mat.SymDense
}

// Dim returns the number of columns.
func (m *Matrix) Dim() int { return len(m.Columns) }

func (m *Matrix) At(i, j int) float64 { return m.sym.At(i, j) }

// Lookup returns the coefficient between two named columns.
func (m *Matrix) Lookup(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a && ia < 0 {
			ia = i
		}
		if c == b && ib < 0 {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.sym.At(ia, ib), true
}

// Values returns the matrix as row-major slices.
func (m *Matrix) Values() [][]float64 {
	n := m.Dim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = m.sym.At(i, j)
		}
	}
	return out
}

// moments accumulates the first pass: column sums and the observed range.
type moments struct {
	sum, min, max []float64
	seen          bool
}

func newMoments(k int) *moments {
	return &moments{sum: make([]float64, k), min: make([]float64, k), max: make([]float64, k)}
}

func (a *moments) add(row []float64) {
	floats.Add(a.sum, row)
	if !a.seen {
		copy(a.min, row)
		copy(a.max, row)
		a.seen = true
		return
	}
	for i, v := range row {
		a.min[i] = math.Min(a.min[i], v)
		a.max[i] = math.Max(a.max[i], v)
	}
}

func (a *moments) merge(b *moments) *moments {
	if !b.seen {
		return a
	}
	if !a.seen {
		floats.Add(b.sum, a.sum)
		return b
	}
	floats.Add(a.sum, b.sum)
	for i := range a.min {
		a.min[i] = math.Min(a.min[i], b.min[i])
		a.max[i] = math.Max(a.max[i], b.max[i])
	}
	return a
}

// deviations accumulates the second pass: squared deviations per column and
// deviation products per unordered column pair.
type deviations struct {
	sq    []float64
	cross []float64 // indexed by pairIndex, i < j
	d     []float64 // scratch
}

func newDeviations(k int) *deviations {
	return &deviations{
		sq:    make([]float64, k),
		cross: make([]float64, k*(k-1)/2),
		d:     make([]float64, k),
	}
}

func (a *deviations) add(row, means []float64) {
	k := len(means)
	floats.SubTo(a.d, row, means)
	p := 0
	for i := 0; i < k; i++ {
		di := a.d[i]
		a.sq[i] += di * di
		for j := i + 1; j < k; j++ {
			a.cross[p] += di * a.d[j]
			p++
		}
	}
}

func (a *deviations) merge(b *deviations) *deviations {
	floats.Add(a.sq, b.sq)
	floats.Add(a.cross, b.cross)
	return a
}

func pairIndex(i, j, k int) int { return i*k - i*(i+1)/2 + (j - i - 1) }

// Correlate computes the sample Pearson correlation matrix of t in two passes.
// The first pass sums every column to obtain the global means; only then does
// the second pass accumulate deviations from those means. Each pass is an
// associative fold over row chunks that may run concurrently.
//
// Fewer than two rows yields *InsufficientRowsError; a column whose values are
// all identical, or whose sample standard deviation is zero, yields
// *ConstantColumnError.
func Correlate(ctx context.Context, t Table, opt Options) (*Matrix, error) {
	k := len(t.Columns)
	if k == 0 {
		return nil, ErrNoColumns
	}
	n := len(t.Rows)
	if n < 2 {
		return nil, &InsufficientRowsError{Rows: n}
	}
	for r, row := range t.Rows {
		if len(row) != k {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", r+1, len(row), k, ErrRaggedRow)
		}
	}

	first, err := foldChunks(ctx, t.Rows, opt,
		func() *moments { return newMoments(k) },
		func(acc *moments, row []float64) *moments { acc.add(row); return acc },
		func(a, b *moments) *moments { return a.merge(b) },
	)
	if err != nil {
		return nil, fmt.Errorf("mean pass: %w", err)
	}
	for i := 0; i < k; i++ {
		if first.min[i] == first.max[i] {
			return nil, &ConstantColumnError{Column: t.Columns[i]}
		}
	}
	means := first.sum
	floats.Scale(1/float64(n), means)

	dev, err := foldChunks(ctx, t.Rows, opt,
		func() *deviations { return newDeviations(k) },
		func(acc *deviations, row []float64) *deviations { acc.add(row, means); return acc },
		func(a, b *deviations) *deviations { return a.merge(b) },
	)
	if err != nil {
		return nil, fmt.Errorf("deviation pass: %w", err)
	}

	dof := float64(n - 1)
	std := make([]float64, k)
	for i := range std {
		std[i] = math.Sqrt(dev.sq[i] / dof)
		if std[i] == 0 {
			return nil, &ConstantColumnError{Column: t.Columns[i]}
		}
		if math.IsNaN(std[i]) || math.IsInf(std[i], 0) {
			return nil, fmt.Errorf("column %q: %w", t.Columns[i], ErrNonFinite)
		}
	}

	sym := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < k; j++ {
			// cross / ((n-1) std_i std_j), with the (n-1) factors cancelled.
			r := dev.cross[pairIndex(i, j, k)] / math.Sqrt(dev.sq[i]*dev.sq[j])
			sym.SetSym(i, j, clamp(r))
		}
	}
	cols := make([]string, k)
	copy(cols, t.Columns)
	return &Matrix{Columns: cols, sym: sym}, nil
}

func clamp(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
