package report

import (
	"fmt"
	"strings"
)

// Markdown renders the report as bracketed plain-text sections with Markdown
// tables, suitable for pasting into notes or prompts.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Profile: %s\n", r.Profile))
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	if ov := r.Overview; ov != nil {
		b.WriteString(fmt.Sprintf("Rows: %d\n", ov.Rows))
		b.WriteString(fmt.Sprintf("Columns: %d\n", ov.Columns))
		if len(ov.Head) > 0 {
			b.WriteString("\n[HEAD ROWS]\n")
			writeTable(&b, ov.Header, ov.Head)
		}
	}
	if h := r.Histogram; h != nil {
		b.WriteString(fmt.Sprintf("\n[HISTOGRAM BY %s]\n", strings.ToUpper(safeName(h.Column))))
		for _, bin := range h.Bins {
			b.WriteString(fmt.Sprintf("- %s: %d\n", bin.Name, bin.Count))
		}
		b.WriteString(fmt.Sprintf("Total: %d\n", h.Total))
	}
	if len(r.Statistics) > 0 {
		b.WriteString("\n[COLUMN STATISTICS]\n")
		for _, c := range r.Statistics {
			if c.Summary == nil {
				b.WriteString(fmt.Sprintf("- %s: unavailable (%s)\n", safeName(c.Column), c.Error))
				continue
			}
			s := c.Summary
			b.WriteString(fmt.Sprintf("- %s (n=%d): min %.4g, p25 %.4g, median %.4g, p75 %.4g, max %.4g\n",
				safeName(c.Column), s.Count, s.Min, s.P25, s.Median, s.P75, s.Max))
		}
	}
	if c := r.Correlation; c != nil {
		b.WriteString("\n[CORRELATION MATRIX]\n")
		if c.Skipped != "" {
			b.WriteString(c.Skipped)
			b.WriteString("\n")
		} else {
			header := append([]string{""}, c.Columns...)
			rows := make([][]string, len(c.Values))
			for i, row := range c.Values {
				rows[i] = make([]string, 0, len(row)+1)
				rows[i] = append(rows[i], c.Columns[i])
				for _, v := range row {
					rows[i] = append(rows[i], fmt.Sprintf("%.3f", v))
				}
			}
			writeTable(&b, header, rows)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if r := []rune(val); len(r) > 80 {
				val = string(r[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
