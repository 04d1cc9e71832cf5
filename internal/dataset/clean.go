package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom-cli/internal/profile"
	"github.com/KaramelBytes/statloom-cli/internal/stats"
)

// ErrMalformedRow is returned when a cleaned row cannot be parsed into numbers.
var ErrMalformedRow = errors.New("malformed row")

// Clean keeps the rows that have exactly the profile width and no field equal
// to a missing marker.
func Clean(rs RecordSet, p *profile.Profile) RecordSet {
	width := p.Width()
	return rs.Filter(func(r Record) bool {
		if len(r) != width {
			return false
		}
		for _, f := range r {
			if p.IsMissing(f) {
				return false
			}
		}
		return true
	})
}

// Numeric materializes rs and parses the profile's numeric columns of every
// row into a stats.Table.
func Numeric(ctx context.Context, rs RecordSet, p *profile.Profile) (stats.Table, error) {
	rows, err := rs.Materialize(ctx)
	if err != nil {
		return stats.Table{}, err
	}
	cols := p.NumericColumns()
	t := stats.Table{Columns: make([]string, len(cols)), Rows: make([][]float64, 0, len(rows))}
	for j, c := range cols {
		t.Columns[j] = c.Name
	}
	for n, r := range rows {
		if len(r) != p.Width() {
			return stats.Table{}, fmt.Errorf("row %d has %d fields, want %d: %w", n+1, len(r), p.Width(), ErrMalformedRow)
		}
		vals := make([]float64, len(cols))
		for j, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(r[c.Index]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return stats.Table{}, fmt.Errorf("row %d column %q: %q: %w", n+1, c.Name, r[c.Index], ErrMalformedRow)
			}
			vals[j] = v
		}
		t.Rows = append(t.Rows, vals)
	}
	return t, nil
}

// ColumnFields returns field idx of every row long enough to have it.
func ColumnFields(rows []Record, idx int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if idx < len(r) {
			out = append(out, r[idx])
		}
	}
	return out
}

// CategoryFields returns the category field of every row, untouched. Rows too
// short to carry it yield "", which matches no recognized category.
func CategoryFields(rows []Record, idx int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}
