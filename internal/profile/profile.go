// Package profile describes the layout of a dataset: which positions hold the
// identifier, the category and the numeric measurements, and which category
// names are recognized. Every column and category is an explicit {index, name}
// pair so a shifted or missing entry fails validation instead of silently
// mislabelling a column.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a column.
type Kind string

const (
	KindIdentifier Kind = "identifier"
	KindCategory   Kind = "category"
	KindNumeric    Kind = "numeric"
)

// Column is one positional field of a row.
type Column struct {
	Index int    `mapstructure:"index" yaml:"index"`
	Name  string `mapstructure:"name" yaml:"name"`
	Kind  Kind   `mapstructure:"kind" yaml:"kind"`
}

// Category is one recognized value of the category column.
type Category struct {
	Index int    `mapstructure:"index" yaml:"index"`
	Name  string `mapstructure:"name" yaml:"name"`
}

// Bounds is the half-open range [Min, Max) of distinct values a key may have
// for its rows to be kept by the cardinality pre-filter.
type Bounds struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

// Profile is the enumerated configuration of a dataset.
type Profile struct {
	Name           string     `mapstructure:"name" yaml:"name"`
	Columns        []Column   `mapstructure:"columns" yaml:"columns"`
	Categories     []Category `mapstructure:"categories" yaml:"categories"`
	MissingMarkers []string   `mapstructure:"missing_markers" yaml:"missing_markers"`
	KeyColumn      int        `mapstructure:"key_column" yaml:"key_column"`
	Cardinality    Bounds     `mapstructure:"cardinality" yaml:"cardinality"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid profile")

// ErrHeaderWidth is returned by CheckHeader when the header width differs from the profile.
var ErrHeaderWidth = errors.New("header width does not match profile")

// Default returns the layout of the 2015 World Happiness Report table.
func Default() *Profile {
	p := &Profile{
		Name:           "happiness-2015",
		MissingMarkers: []string{"", "null"},
		KeyColumn:      0,
		Cardinality:    Bounds{Min: 2, Max: 50},
	}
	names := []string{
		"Country", "Region", "Happiness Rank", "Happiness Score", "Standard Error",
		"Economy (GDP per Capita)", "Family", "Health (Life Expectancy)", "Freedom",
		"Trust (Government Corruption)", "Generosity", "Dystopia Residual",
	}
	for i, n := range names {
		kind := KindNumeric
		switch i {
		case 0:
			kind = KindIdentifier
		case 1:
			kind = KindCategory
		}
		p.Columns = append(p.Columns, Column{Index: i, Name: n, Kind: kind})
	}
	regions := []string{
		"Western Europe", "North America", "Australia and New Zealand",
		"Middle East and Northern Africa", "Latin America and Caribbean", "Southeastern Asia",
		"Central and Eastern Europe", "Eastern Asia", "Sub-Saharan Africa", "Southern Asia",
	}
	for i, r := range regions {
		p.Categories = append(p.Categories, Category{Index: i, Name: r})
	}
	return p
}

// Validate checks that indices are dense and ordered, names are unique, and
// the profile has exactly one category column and at least one numeric column.
func (p *Profile) Validate() error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalid)
	}
	seen := make(map[string]int, len(p.Columns))
	var cats, nums int
	for i, c := range p.Columns {
		if c.Index != i {
			return fmt.Errorf("%w: column %q has index %d at position %d", ErrInvalid, c.Name, c.Index, i)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalid, i)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%w: column name %q used at %d and %d", ErrInvalid, name, prev, i)
		}
		seen[name] = i
		switch c.Kind {
		case KindCategory:
			cats++
		case KindNumeric:
			nums++
		case KindIdentifier:
		default:
			return fmt.Errorf("%w: column %q has unknown kind %q", ErrInvalid, c.Name, c.Kind)
		}
	}
	if cats != 1 {
		return fmt.Errorf("%w: want exactly one category column, have %d", ErrInvalid, cats)
	}
	if nums == 0 {
		return fmt.Errorf("%w: no numeric columns", ErrInvalid)
	}
	catSeen := make(map[string]struct{}, len(p.Categories))
	for i, c := range p.Categories {
		if c.Index != i {
			return fmt.Errorf("%w: category %q has index %d at position %d", ErrInvalid, c.Name, c.Index, i)
		}
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalid, i)
		}
		if _, dup := catSeen[c.Name]; dup {
			return fmt.Errorf("%w: category %q listed twice", ErrInvalid, c.Name)
		}
		catSeen[c.Name] = struct{}{}
	}
	if p.KeyColumn < 0 || p.KeyColumn >= len(p.Columns) {
		return fmt.Errorf("%w: key_column %d out of range", ErrInvalid, p.KeyColumn)
	}
	if p.Cardinality.Min >= p.Cardinality.Max {
		return fmt.Errorf("%w: cardinality min %d must be below max %d", ErrInvalid, p.Cardinality.Min, p.Cardinality.Max)
	}
	return nil
}

// Width is the number of fields every row must have.
func (p *Profile) Width() int { return len(p.Columns) }

// NumericColumns returns the numeric columns in index order.
func (p *Profile) NumericColumns() []Column {
	var out []Column
	for _, c := range p.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// CategoryColumn returns the single category column.
func (p *Profile) CategoryColumn() (Column, bool) {
	for _, c := range p.Columns {
		if c.Kind == KindCategory {
			return c, true
		}
	}
	return Column{}, false
}

// IdentifierColumn returns the first identifier column, the entity each row
// describes.
func (p *Profile) IdentifierColumn() (Column, bool) {
	for _, c := range p.Columns {
		if c.Kind == KindIdentifier {
			return c, true
		}
	}
	return Column{}, false
}

// CategoryNames returns the recognized category names in report order.
func (p *Profile) CategoryNames() []string {
	out := make([]string, len(p.Categories))
	for i, c := range p.Categories {
		out[i] = c.Name
	}
	return out
}

func (p *Profile) ColumnNames() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

// IsMissing reports whether a field equals one of the missing markers.
func (p *Profile) IsMissing(field string) bool {
	for _, m := range p.MissingMarkers {
		if field == m {
			return true
		}
	}
	return false
}

// CheckHeader compares a dataset header with the profile. A width mismatch is
// an error; differing names are returned as warnings because the profile names
// are authoritative for labelling.
func (p *Profile) CheckHeader(header []string) ([]string, error) {
	if len(header) != len(p.Columns) {
		return nil, fmt.Errorf("%w: header has %d fields, profile %q has %d", ErrHeaderWidth, len(header), p.Name, len(p.Columns))
	}
	var warnings []string
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h != p.Columns[i].Name {
			warnings = append(warnings, fmt.Sprintf("column %d: header %q labelled as %q", i, h, p.Columns[i].Name))
		}
	}
	return warnings, nil
}
