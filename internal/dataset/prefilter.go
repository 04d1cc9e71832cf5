package dataset

import (
	"context"
	"sort"

	"github.com/KaramelBytes/statloom-cli/internal/profile"
)

type valueSets map[string]map[string]struct{}

func (a valueSets) add(r Record, key int) valueSets {
	if key >= len(r) {
		return a
	}
	set, ok := a[r[key]]
	if !ok {
		set = make(map[string]struct{})
		a[r[key]] = set
	}
	for i, f := range r {
		if i != key {
			set[f] = struct{}{}
		}
	}
	return a
}

func (a valueSets) union(b valueSets) valueSets {
	for k, bs := range b {
		as, ok := a[k]
		if !ok {
			a[k] = bs
			continue
		}
		for v := range bs {
			as[v] = struct{}{}
		}
	}
	return a
}

// CardinalityFilter runs one aggregation pass collecting, for every value of
// the key field, the distinct values of the other fields across all rows with
// that key. It returns rs lazily filtered to rows whose key has between
// b.Min (inclusive) and b.Max (exclusive) distinct values, plus the sorted keys
// that were excluded.
func CardinalityFilter(ctx context.Context, rs RecordSet, key int, b profile.Bounds) (RecordSet, []string, error) {
	sets, err := Aggregate(ctx, rs,
		func() valueSets { return valueSets{} },
		func(a valueSets, r Record) valueSets { return a.add(r, key) },
		func(a, b valueSets) valueSets { return a.union(b) },
	)
	if err != nil {
		return nil, nil, err
	}
	counts := make(map[string]int, len(sets))
	var excluded []string
	for k, s := range sets {
		counts[k] = len(s)
		if len(s) < b.Min || len(s) >= b.Max {
			excluded = append(excluded, k)
		}
	}
	sort.Strings(excluded)
	kept := rs.Filter(func(r Record) bool {
		if key >= len(r) {
			return false
		}
		n := counts[r[key]]
		return n >= b.Min && n < b.Max
	})
	return kept, excluded, nil
}
