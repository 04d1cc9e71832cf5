package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// plural forms an English plural for a column label: Country becomes
// Countries, Region becomes Regions.
func plural(word string) string {
	lower := strings.ToLower(word)
	switch {
	case word == "":
		return word
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return word + "es"
	}
	return word + "s"
}

// Text writes the console layout: overview, histogram, per-column statistics
// and the correlation matrix, one labelled block per row.
func (r *Report) Text(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if ov := r.Overview; ov != nil {
		fmt.Fprintf(bw, "There are %d rows and %d columns.\n\n", ov.Rows, ov.Columns)
		for _, row := range ov.Head {
			fmt.Fprintf(bw, "[%s]\n", strings.Join(row, ", "))
		}
		bw.WriteString("\n\n")
	}
	if h := r.Histogram; h != nil {
		fmt.Fprintf(bw, "Histogram number of %s by %s : \n\n", plural(h.Counted), plural(h.Column))
		fmt.Fprintf(bw, "%s\t\tNumber of %s\n", h.Column, plural(h.Counted))
		bw.WriteString("-----------------------------------\n")
		for _, b := range h.Bins {
			fmt.Fprintf(bw, "%s\t\t%d\n", b.Name, b.Count)
		}
		bw.WriteString("\n\n")
	}
	if len(r.Statistics) > 0 {
		bw.WriteString("Columns statistics :\n\n")
		for _, c := range r.Statistics {
			fmt.Fprintf(bw, "%s:\n", c.Column)
			if c.Summary == nil {
				fmt.Fprintf(bw, "\tNo statistics: %s\n\n\n", c.Error)
				continue
			}
			s := c.Summary
			fmt.Fprintf(bw, "\tMinimum: %s\n", num(s.Min))
			fmt.Fprintf(bw, "\t25th percentile: %s\n", num(s.P25))
			fmt.Fprintf(bw, "\tMedian: %s\n", num(s.Median))
			fmt.Fprintf(bw, "\t75th percentile: %s\n", num(s.P75))
			fmt.Fprintf(bw, "\tMaximum: %s\n\n\n", num(s.Max))
		}
	}
	if c := r.Correlation; c != nil {
		if c.Skipped != "" {
			fmt.Fprintf(bw, "%s\n", c.Skipped)
		} else {
			fmt.Fprintf(bw, "Correlation Matrix for %s : \n\n", r.Name)
			for i, row := range c.Values {
				fmt.Fprintf(bw, "%s:\n", c.Columns[i])
				vals := make([]string, len(row))
				for j, v := range row {
					vals[j] = num(v)
				}
				fmt.Fprintf(bw, "%s\n\n\n", strings.Join(vals, "\t"))
			}
		}
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(bw, "⚠ %s\n", warn)
	}
	return bw.Flush()
}
