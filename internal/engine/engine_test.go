package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KaramelBytes/statloom-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func start(t *testing.T, opt Options) *Engine {
	t.Helper()
	e, err := Start(context.Background(), opt, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestStartDefaults(t *testing.T) {
	e := start(t, Options{})
	assert.Positive(t, e.Workers())
	assert.Equal(t, 2*e.Workers(), e.Partitions())
	assert.Len(t, e.RunID, 36)

	other := start(t, Options{Workers: 1})
	assert.NotEqual(t, e.RunID, other.RunID)

	_, err := Start(context.Background(), Options{Workers: -1}, nil)
	require.Error(t, err)
}

func TestRunBoundsConcurrency(t *testing.T) {
	e := start(t, Options{Workers: 3})
	var cur, peak atomic.Int32
	err := e.Run(context.Background(), 20, func(ctx context.Context, i int) error {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		cur.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunReturnsFirstError(t *testing.T) {
	e := start(t, Options{Workers: 2})
	boom := errors.New("boom")
	var ran atomic.Int32
	err := e.Run(context.Background(), 50, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i == 0 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, boom)
	assert.Less(t, ran.Load(), int32(50))
}

func TestRunHonoursCancellation(t *testing.T) {
	e := start(t, Options{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx, 10, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestCloseIsIdempotentAndFinal(t *testing.T) {
	e, err := Start(context.Background(), Options{Workers: 2}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	err = e.Run(context.Background(), 1, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, ErrClosed)

	_, err = e.Parallelize([]dataset.Record{{"a"}}).Count(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	_, err = e.Load(context.Background(), dataset.Source{Path: "x.csv"})
	require.ErrorIs(t, err, ErrClosed)
}

func TestCloseWaitsForInFlightTasks(t *testing.T) {
	e, err := Start(context.Background(), Options{Workers: 1}, nil)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	runDone := make(chan error, 1)
	go func() {
		runDone <- e.Run(context.Background(), 1, func(context.Context, int) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	closed := make(chan struct{})
	go func() {
		_ = e.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while a task was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-runDone)
	<-closed
}

func TestLoadBuildsPartitionedSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.csv")
	require.NoError(t, os.WriteFile(path, []byte("k,v\na,1\nb,2\nc,3\n"), 0o644))

	e := start(t, Options{Workers: 2, Partitions: 3})
	rs, err := e.Load(context.Background(), dataset.Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 3, rs.NumPartitions())

	n, err := rs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = e.Load(context.Background(), dataset.Source{Path: filepath.Join(t.TempDir(), "none.csv")})
	require.Error(t, err)
}
