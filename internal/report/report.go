// Package report runs the statistics pipeline over a Record Set and renders
// the result as console text, Markdown or YAML.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/statloom-cli/internal/dataset"
	"github.com/KaramelBytes/statloom-cli/internal/engine"
	"github.com/KaramelBytes/statloom-cli/internal/profile"
	"github.com/KaramelBytes/statloom-cli/internal/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Section names accepted by Options.Sections.
const (
	SectionOverview    = "overview"
	SectionHistogram   = "histogram"
	SectionStatistics  = "statistics"
	SectionCorrelation = "correlation"
)

// AllSections lists every section in report order.
var AllSections = []string{SectionOverview, SectionHistogram, SectionStatistics, SectionCorrelation}

// ErrUnknownSection is returned for a section name outside AllSections.
var ErrUnknownSection = errors.New("unknown report section")

// Options controls which sections are computed and how much is shown.
type Options struct {
	// Name labels the dataset in rendered output.
	Name string
	// HeadRows is the number of data rows shown in the overview. 0 means 5;
	// negative hides the rows.
	HeadRows int
	// Sections restricts the report; empty means AllSections.
	Sections []string
}

// DefaultHeadRows is the overview row count when Options.HeadRows is 0.
const DefaultHeadRows = 5

// ParseSections splits a comma separated list and validates every name.
func ParseSections(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !contains(AllSections, name) {
			return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownSection, name, strings.Join(AllSections, ", "))
		}
		if !contains(out, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (o Options) wants(section string) bool {
	return len(o.Sections) == 0 || contains(o.Sections, section)
}

// Report is the computed result of one run. Sections that were not requested
// are nil.
type Report struct {
	Name        string              `yaml:"name"`
	RunID       string              `yaml:"run_id"`
	Profile     string              `yaml:"profile"`
	Overview    *Overview           `yaml:"overview,omitempty"`
	Histogram   *HistogramSection   `yaml:"histogram,omitempty"`
	Statistics  []ColumnStats       `yaml:"statistics,omitempty"`
	Correlation *CorrelationSection `yaml:"correlation,omitempty"`
	Warnings    []string            `yaml:"warnings,omitempty"`
}

// Overview describes the prepared rows.
type Overview struct {
	Rows         int        `yaml:"rows"`
	Columns      int        `yaml:"columns"`
	Header       []string   `yaml:"header"`
	Head         [][]string `yaml:"head,omitempty"`
	ExcludedKeys []string   `yaml:"excluded_keys,omitempty"`
}

// HistogramSection is the category histogram in profile order.
type HistogramSection struct {
	Column string `yaml:"column"`
	// Counted names what the bins count: the identifier column, or "Row" when
	// the profile has none.
	Counted string      `yaml:"counted"`
	Bins   []stats.Bin `yaml:"bins"`
	Total  int         `yaml:"total"`
}

// ColumnStats is the outcome for one numeric column: a summary or the reason
// there is none.
type ColumnStats struct {
	Column  string         `yaml:"column"`
	Summary *stats.Summary `yaml:"summary,omitempty"`
	Error   string         `yaml:"error,omitempty"`
}

// CorrelationSection holds either the matrix or the reason it was skipped.
type CorrelationSection struct {
	Rows    int         `yaml:"rows"`
	Columns []string    `yaml:"columns,omitempty"`
	Values  [][]float64 `yaml:"values,omitempty"`
	Skipped string      `yaml:"skipped,omitempty"`
	// Err is the condition behind Skipped, for errors.Is checks.
	Err error `yaml:"-"`
}

// Build runs the pipeline over rs, whose first record is the header. Header
// copies inside the data are dropped, the cardinality pre-filter is applied
// and the prepared rows are materialized once. The requested sections are then
// computed independently: a failing column or a skipped correlation matrix is
// recorded in the report and does not fail the run.
func Build(ctx context.Context, eng *engine.Engine, rs dataset.RecordSet, prof *profile.Profile, opt Options) (*Report, error) {
	start := time.Now()
	log := eng.Logger().With(zap.String("dataset", opt.Name))

	header, err := rs.First(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrEmpty) {
			return nil, fmt.Errorf("%s: no header row", opt.Name)
		}
		return nil, err
	}
	warnings, err := prof.CheckHeader(header)
	if err != nil {
		return nil, err
	}

	body := rs.Filter(func(r dataset.Record) bool { return !r.Equal(header) })
	kept, excluded, err := dataset.CardinalityFilter(ctx, body, prof.KeyColumn, prof.Cardinality)
	if err != nil {
		return nil, fmt.Errorf("cardinality filter: %w", err)
	}
	rows, err := kept.Materialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}
	log.Debug("rows prepared", zap.Int("rows", len(rows)), zap.Int("excluded_keys", len(excluded)))

	r := &Report{
		Name:     opt.Name,
		RunID:    eng.RunID,
		Profile:  prof.Name,
		Warnings: warnings,
	}
	if len(excluded) > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d key value(s) excluded by the cardinality filter [%d, %d)",
			len(excluded), prof.Cardinality.Min, prof.Cardinality.Max))
	}
	if opt.wants(SectionOverview) {
		r.Overview = overview(rows, excluded, prof, opt.HeadRows)
	}

	// The histogram and the correlation matrix read the Cleaned Dataset: rows
	// of the profile width with no missing marker in any field.
	var cleaned []dataset.Record
	if opt.wants(SectionHistogram) || opt.wants(SectionCorrelation) {
		cleaned, err = dataset.Clean(eng.Parallelize(rows), prof).Materialize(ctx)
		if err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
		log.Debug("rows cleaned", zap.Int("rows", len(cleaned)))
	}

	g, gctx := errgroup.WithContext(ctx)
	if opt.wants(SectionHistogram) {
		g.Go(func() error {
			h, err := histogram(gctx, eng, cleaned, prof)
			r.Histogram = h
			return err
		})
	}
	if opt.wants(SectionStatistics) {
		g.Go(func() error {
			r.Statistics = statistics(rows, prof)
			return nil
		})
	}
	if opt.wants(SectionCorrelation) {
		g.Go(func() error {
			c, err := correlation(gctx, eng, eng.Parallelize(cleaned), prof)
			r.Correlation = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("report built",
		zap.Int("rows", len(rows)),
		zap.Int("warnings", len(r.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return r, nil
}

func overview(rows []dataset.Record, excluded []string, prof *profile.Profile, head int) *Overview {
	if head == 0 {
		head = DefaultHeadRows
	}
	ov := &Overview{
		Rows:         len(rows),
		Columns:      prof.Width(),
		Header:       prof.ColumnNames(),
		ExcludedKeys: excluded,
	}
	for i := 0; i < head && i < len(rows); i++ {
		ov.Head = append(ov.Head, append([]string(nil), rows[i]...))
	}
	return ov
}

func histogram(ctx context.Context, eng *engine.Engine, rows []dataset.Record, prof *profile.Profile) (*HistogramSection, error) {
	col, ok := prof.CategoryColumn()
	if !ok {
		return nil, fmt.Errorf("profile %q has no category column", prof.Name)
	}
	h, err := stats.CountCategories(ctx, dataset.CategoryFields(rows, col.Index), prof.CategoryNames(), eng.StatsOptions())
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	counted := "Row"
	if id, ok := prof.IdentifierColumn(); ok {
		counted = id.Name
	}
	return &HistogramSection{Column: col.Name, Counted: counted, Bins: h.Bins(), Total: h.Total()}, nil
}

// statistics summarizes every numeric column. Failures stay on their column.
func statistics(rows []dataset.Record, prof *profile.Profile) []ColumnStats {
	cols := prof.NumericColumns()
	out := make([]ColumnStats, len(cols))
	for i, c := range cols {
		out[i].Column = c.Name
		vals, err := stats.ColumnValues(dataset.ColumnFields(rows, c.Index), prof.IsMissing)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		s, err := stats.Summarize(c.Name, vals)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Summary = &s
	}
	return out
}

// correlation checks the row count of the cleaned set and builds the matrix.
// Insufficient rows, a constant column or an unparsable row skip the section;
// only cancellation fails it.
func correlation(ctx context.Context, eng *engine.Engine, cleaned dataset.RecordSet, prof *profile.Profile) (*CorrelationSection, error) {
	n, err := cleaned.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}
	sec := &CorrelationSection{Rows: n}
	if n < 2 {
		return sec.skip(&stats.InsufficientRowsError{Rows: n}), nil
	}
	t, err := dataset.Numeric(ctx, cleaned, prof)
	if err != nil {
		if errors.Is(err, dataset.ErrMalformedRow) {
			return sec.skip(err), nil
		}
		return nil, fmt.Errorf("correlation: %w", err)
	}
	m, err := stats.Correlate(ctx, t, eng.StatsOptions())
	switch {
	case errors.Is(err, stats.ErrInsufficientRows), errors.Is(err, stats.ErrConstantColumn), errors.Is(err, stats.ErrNonFinite):
		return sec.skip(err), nil
	case err != nil:
		return nil, fmt.Errorf("correlation: %w", err)
	}
	sec.Columns = m.Columns
	sec.Values = m.Values()
	return sec, nil
}

func (s *CorrelationSection) skip(err error) *CorrelationSection {
	s.Err = err
	var ir *stats.InsufficientRowsError
	if errors.As(err, &ir) {
		s.Skipped = fmt.Sprintf("No correlation matrix shown: The number of non-null or constant rows (%d) is less than 2", ir.Rows)
	} else {
		s.Skipped = "No correlation matrix shown: " + err.Error()
	}
	return s
}
