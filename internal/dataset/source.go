package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source names a dataset on disk and the options its loader needs.
type Source struct {
	Path string
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// SQLite table; the first table by name when empty.
	Table string
}

// Name is the base name shown in reports.
func (s Source) Name() string {
	name := filepath.Base(s.Path)
	switch {
	case s.SheetName != "":
		name = fmt.Sprintf("%s (sheet: %s)", name, s.SheetName)
	case s.Table != "":
		name = fmt.Sprintf("%s (table: %s)", name, s.Table)
	}
	return name
}

// Loader reads a whole dataset; the header is the first record returned.
type Loader interface {
	CanLoad(path string) bool
	Load(ctx context.Context, src Source) ([]Record, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported dataset format")

// Open selects a loader by file name and returns header and data rows.
func Open(ctx context.Context, src Source) ([]Record, error) {
	for _, l := range registry {
		if l.CanLoad(src.Path) {
			return l.Load(ctx, src)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(src.Path), ErrUnsupported)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(sqliteLoader{})
}

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvLoader) Load(_ context.Context, src Source) ([]Record, error) {
	return LoadCSV(src.Path, src.Delimiter)
}

// LoadCSV reads a delimited text file.
func LoadCSV(path string, delim rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, delim)
}

// ReadCSV reads every record from r. Rows may have differing widths; the
// cleaner decides what to do with them.
func ReadCSV(r io.Reader, delim rune) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	var out []Record
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		if len(out) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
		}
		out = append(out, Record(rec))
	}
	return out, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}
