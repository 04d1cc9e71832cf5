package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxLoader) Load(_ context.Context, src Source) ([]Record, error) {
	return LoadXLSX(src.Path, src.SheetName, src.SheetIndex)
}

// LoadXLSX reads one sheet of a workbook. If sheetName is empty the 1-based
// sheetIndex selects the sheet (the first one when sheetIndex <= 0). Rows are
// padded with empty fields to the header width.
func LoadXLSX(path, sheetName string, sheetIndex int) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, sheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range: workbook '%s' has %d sheets", idx, filepath.Base(path), len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			r = padded
		}
		out = append(out, Record(r))
	}
	return out, nil
}
