package stats

import "context"

// Bin is one recognized category and its count.
type Bin struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
}

// Histogram counts occurrences of a closed, ordered set of category names.
// Values outside the set are ignored and never become bins.
type Histogram struct {
	bins  []Bin
	index map[string]int
}

// NewHistogram returns a histogram with every name at zero, in the given order.
// Repeated names keep their first position.
func NewHistogram(names []string) *Histogram {
	h := &Histogram{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, dup := h.index[n]; dup {
			continue
		}
		h.index[n] = len(h.bins)
		h.bins = append(h.bins, Bin{Name: n})
	}
	return h
}

// Add counts value if it is a recognized name (exact, case-sensitive match).
func (h *Histogram) Add(value string) bool {
	i, ok := h.index[value]
	if !ok {
		return false
	}
	h.bins[i].Count++
	return true
}

// Merge adds the counts of o into h by name.
func (h *Histogram) Merge(o *Histogram) *Histogram {
	for _, b := range o.bins {
		if i, ok := h.index[b.Name]; ok {
			h.bins[i].Count += b.Count
		}
	}
	return h
}

// Bins returns a copy of the bins in recognized-name order.
func (h *Histogram) Bins() []Bin {
	out := make([]Bin, len(h.bins))
	copy(out, h.bins)
	return out
}

func (h *Histogram) Count(name string) (int, bool) {
	i, ok := h.index[name]
	if !ok {
		return 0, false
	}
	return h.bins[i].Count, true
}

// Total is the number of values that matched a recognized name.
func (h *Histogram) Total() int {
	t := 0
	for _, b := range h.bins {
		t += b.Count
	}
	return t
}

// CountCategories folds values into a histogram over names, chunk by chunk.
func CountCategories(ctx context.Context, values []string, names []string, opt Options) (*Histogram, error) {
	return foldChunks(ctx, values, opt,
		func() *Histogram { return NewHistogram(names) },
		func(h *Histogram, v string) *Histogram { h.Add(v); return h },
		func(a, b *Histogram) *Histogram { return a.Merge(b) },
	)
}
