package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Summary holds the order statistics of one numeric column.
type Summary struct {
	Column string  `yaml:"column" json:"column"`
	Count  int     `yaml:"count" json:"count"`
	Min    float64 `yaml:"min" json:"min"`
	P25    float64 `yaml:"p25" json:"p25"`
	Median float64 `yaml:"median" json:"median"`
	P75    float64 `yaml:"p75" json:"p75"`
	Max    float64 `yaml:"max" json:"max"`
}

// ColumnValues parses the non-missing fields of one column. A field is dropped
// when isMissing reports true; a nil isMissing treats only the empty string as
// missing. Dropping is column-local: callers pass one column's fields at a time.
func ColumnValues(fields []string, isMissing func(string) bool) ([]float64, error) {
	if isMissing == nil {
		isMissing = func(s string) bool { return s == "" }
	}
	out := make([]float64, 0, len(fields))
	for i, f := range fields {
		if isMissing(f) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("row %d: %q: %w", i+1, f, ErrUnparsable)
		}
		out = append(out, v)
	}
	return out, nil
}

// Quantile returns the element at the truncated rank floor(n*q) of an ascending
// slice. There is no interpolation between neighbouring ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := int(float64(n) * q)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Summarize sorts a copy of values and reports min, quartiles and max.
func Summarize(column string, values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{Column: column}, fmt.Errorf("%s: %w", column, ErrEmptyColumn)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Summary{
		Column: column,
		Count:  len(sorted),
		Min:    sorted[0],
		P25:    Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		P75:    Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}, nil
}
