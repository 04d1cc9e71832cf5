// Package dataset provides the partitioned Record Set the report is computed
// from, the loaders that fill it, and the cleaning and pre-filtering steps that
// shape it before the statistics run.
package dataset

import (
	"context"
	"errors"
	"fmt"
)

// Record is one raw row of fields.
type Record []string

// Equal reports whether two records have the same fields.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Executor runs n independent tasks and returns the first error. Tasks may run
// in any order and concurrently.
type Executor interface {
	Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error
}

// Sequential runs tasks one after another on the calling goroutine.
type Sequential struct{}

func (Sequential) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// RecordSet is a read-only, partitioned collection of records. Filter and Map
// are lazy: they only extend the lineage, which is evaluated per partition by
// the terminal operations.
type RecordSet interface {
	Filter(keep func(Record) bool) RecordSet
	Map(fn func(Record) (Record, error)) RecordSet
	// Count evaluates the lineage and returns the number of records without
	// collecting them.
	Count(ctx context.Context) (int, error)
	// First returns the first record in partition order, or ErrEmpty.
	First(ctx context.Context) (Record, error)
	Take(ctx context.Context, n int) ([]Record, error)
	// Materialize collects every record into one slice in partition order.
	Materialize(ctx context.Context) ([]Record, error)
	// ForEachPartition evaluates each partition as an independent task.
	ForEachPartition(ctx context.Context, fn func(part int, rows []Record) error) error
	NumPartitions() int
}

// ErrEmpty is returned by First on an empty set.
var ErrEmpty = errors.New("record set is empty")

type stage func(Record) (Record, bool, error)

type partitioned struct {
	exec   Executor
	parts  [][]Record
	stages []stage
}

// New splits records into contiguous partitions evaluated by exec. A nil exec
// runs sequentially. The records slice must not be modified afterwards.
func New(exec Executor, records []Record, partitions int) RecordSet {
	if exec == nil {
		exec = Sequential{}
	}
	if partitions <= 0 {
		partitions = 1
	}
	size := (len(records) + partitions - 1) / partitions
	if size == 0 {
		size = 1
	}
	var parts [][]Record
	for lo := 0; lo < len(records); lo += size {
		hi := lo + size
		if hi > len(records) {
			hi = len(records)
		}
		parts = append(parts, records[lo:hi])
	}
	if len(parts) == 0 {
		parts = [][]Record{nil}
	}
	return &partitioned{exec: exec, parts: parts}
}

func (p *partitioned) with(s stage) *partitioned {
	st := make([]stage, len(p.stages), len(p.stages)+1)
	copy(st, p.stages)
	return &partitioned{exec: p.exec, parts: p.parts, stages: append(st, s)}
}

func (p *partitioned) Filter(keep func(Record) bool) RecordSet {
	return p.with(func(r Record) (Record, bool, error) { return r, keep(r), nil })
}

func (p *partitioned) Map(fn func(Record) (Record, error)) RecordSet {
	return p.with(func(r Record) (Record, bool, error) {
		out, err := fn(r)
		return out, err == nil, err
	})
}

func (p *partitioned) NumPartitions() int { return len(p.parts) }

// apply runs the lineage on one record.
func (p *partitioned) apply(r Record) (Record, bool, error) {
	for _, s := range p.stages {
		var keep bool
		var err error
		r, keep, err = s(r)
		if err != nil || !keep {
			return nil, false, err
		}
	}
	return r, true, nil
}

// scan feeds the surviving records of partition i to fn until fn returns false.
func (p *partitioned) scan(ctx context.Context, i int, fn func(Record) bool) error {
	for n, r := range p.parts[i] {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out, keep, err := p.apply(r)
		if err != nil {
			return fmt.Errorf("partition %d record %d: %w", i, n+1, err)
		}
		if keep && !fn(out) {
			return nil
		}
	}
	return nil
}

func (p *partitioned) ForEachPartition(ctx context.Context, fn func(part int, rows []Record) error) error {
	return p.exec.Run(ctx, len(p.parts), func(ctx context.Context, i int) error {
		var rows []Record
		if err := p.scan(ctx, i, func(r Record) bool { rows = append(rows, r); return true }); err != nil {
			return err
		}
		return fn(i, rows)
	})
}

func (p *partitioned) Count(ctx context.Context) (int, error) {
	counts := make([]int, len(p.parts))
	err := p.exec.Run(ctx, len(p.parts), func(ctx context.Context, i int) error {
		return p.scan(ctx, i, func(Record) bool { counts[i]++; return true })
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

func (p *partitioned) Materialize(ctx context.Context) ([]Record, error) {
	parts := make([][]Record, len(p.parts))
	err := p.ForEachPartition(ctx, func(i int, rows []Record) error {
		parts[i] = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rows := range parts {
		out = append(out, rows...)
	}
	return out, nil
}

func (p *partitioned) Take(ctx context.Context, n int) ([]Record, error) {
	var out []Record
	for i := range p.parts {
		if len(out) >= n {
			break
		}
		err := p.scan(ctx, i, func(r Record) bool {
			out = append(out, r)
			return len(out) < n
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *partitioned) First(ctx context.Context) (Record, error) {
	rows, err := p.Take(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows[0], nil
}

// Aggregate folds every partition with seq starting from zero() and combines
// the partition results with comb in partition order. comb must be associative
// and commutative over partitions for the result not to depend on partitioning.
func Aggregate[A any](ctx context.Context, rs RecordSet, zero func() A, seq func(A, Record) A, comb func(A, A) A) (A, error) {
	parts := make([]A, rs.NumPartitions())
	err := rs.ForEachPartition(ctx, func(i int, rows []Record) error {
		acc := zero()
		for _, r := range rows {
			acc = seq(acc, r)
		}
		parts[i] = acc
		return nil
	})
	if err != nil {
		var z A
		return z, err
	}
	out := zero()
	for _, p := range parts {
		out = comb(out, p)
	}
	return out, nil
}
