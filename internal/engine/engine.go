// Package engine provides the scoped execution context a report run works in.
// An Engine is started once per run, evaluates Record Set partitions on a
// bounded pool and must be closed on every exit path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/KaramelBytes/statloom-cli/internal/dataset"
	"github.com/KaramelBytes/statloom-cli/internal/stats"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by every operation on an engine after Close.
var ErrClosed = errors.New("engine is closed")

// Options sizes the engine. Zero values pick defaults from GOMAXPROCS.
type Options struct {
	Workers    int
	Partitions int
}

// Engine implements dataset.Executor. Concurrent partition tasks are bounded
// across all Record Sets built from the same engine.
type Engine struct {
	RunID string

	log        *zap.Logger
	sem        *semaphore.Weighted
	workers    int
	partitions int
	started    time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ dataset.Executor = (*Engine)(nil)

// Start acquires a new engine. A nil logger is replaced with a no-op one.
func Start(ctx context.Context, opt Options, log *zap.Logger) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opt.Workers < 0 || opt.Partitions < 0 {
		return nil, fmt.Errorf("invalid engine options: workers=%d partitions=%d", opt.Workers, opt.Partitions)
	}
	if opt.Workers == 0 {
		opt.Workers = runtime.GOMAXPROCS(0)
	}
	if opt.Partitions == 0 {
		opt.Partitions = 2 * opt.Workers
	}
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	e := &Engine{
		RunID:      id,
		log:        log.With(zap.String("run_id", id)),
		sem:        semaphore.NewWeighted(int64(opt.Workers)),
		workers:    opt.Workers,
		partitions: opt.Partitions,
		started:    time.Now(),
	}
	e.log.Debug("engine started", zap.Int("workers", opt.Workers), zap.Int("partitions", opt.Partitions))
	return e, nil
}

func (e *Engine) Workers() int { return e.workers }
func (e *Engine) Partitions() int { return e.partitions }
func (e *Engine) Logger() *zap.Logger { return e.log }

// StatsOptions returns fold options for the calculators matching the pool size.
func (e *Engine) StatsOptions() stats.Options {
	return stats.Options{Workers: e.workers}
}

// enter registers an in-flight operation, failing once the engine is closed.
func (e *Engine) enter() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.wg.Add(1)
	return nil
}

// Run evaluates task for i in [0, n). Tasks run concurrently up to the worker
// limit; the first error cancels the rest and is returned.
func (e *Engine) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.wg.Done()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		if err := e.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer e.sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Parallelize wraps in-memory records in a Record Set evaluated by e.
func (e *Engine) Parallelize(records []dataset.Record) dataset.RecordSet {
	return dataset.New(e, records, e.partitions)
}

// Load reads src and returns its rows, header first, as a Record Set.
func (e *Engine) Load(ctx context.Context, src dataset.Source) (dataset.RecordSet, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.wg.Done()

	start := time.Now()
	rows, err := dataset.Open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	e.log.Debug("dataset loaded",
		zap.String("source", src.Name()),
		zap.Int("records", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return e.Parallelize(rows), nil
}

// Close waits for in-flight operations and releases the engine. It is safe to
// call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Debug("engine closed", zap.Duration("uptime", time.Since(e.started)))
	return nil
}
