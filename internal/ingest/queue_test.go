package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineQueue_ProcessesAllJobs(t *testing.T) {
	var processed atomic.Int32
	q := NewPipelineQueue(func(_ context.Context, _ Job) error {
		processed.Add(1)
		return nil
	}, slog.Default(), WithWorkers(3))

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{SourcePath: "/tmp/x.pdf"}))
	}
	q.Shutdown(context.Background())

	assert.Equal(t, int32(20), processed.Load())
}

func TestPipelineQueue_ProcessorErrorsDoNotStopWorkers(t *testing.T) {
	var processed atomic.Int32
	q := NewPipelineQueue(func(_ context.Context, _ Job) error {
		processed.Add(1)
		return errors.New("boom")
	}, slog.Default(), WithWorkers(2))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{SourcePath: "/tmp/x.pdf"}))
	}
	q.Shutdown(context.Background())

	assert.Equal(t, int32(5), processed.Load())
}

func TestPipelineQueue_EnqueueAfterShutdownIsNoop(t *testing.T) {
	q := NewPipelineQueue(func(_ context.Context, _ Job) error {
		return nil
	}, slog.Default())
	q.Shutdown(context.Background())

	assert.NoError(t, q.Enqueue(context.Background(), Job{SourcePath: "/tmp/x.pdf"}))
	// Second shutdown must not panic on the closed channel.
	q.Shutdown(context.Background())
}

func TestWalkDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), []byte("x"), 0o644))

	var seen []string
	stats, err := WalkDirectory(context.Background(), dir, true, func(_ context.Context, job Job) error {
		seen = append(seen, filepath.Base(job.SourcePath))
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.pdf", "b.png"}, seen)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(0), stats.Failed)
}

func TestWalkDirectory_CountsProcessorFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))

	stats, err := WalkDirectory(context.Background(), dir, true, func(_ context.Context, _ Job) error {
		return errors.New("stage failed")
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(1), stats.Matched)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, uint32(0), stats.Succeeded)
}

func TestWalkDirectory_EmptyRoot(t *testing.T) {
	_, err := WalkDirectory(context.Background(), "  ", true, func(_ context.Context, _ Job) error {
		return nil
	})
	assert.Error(t, err)
}

func TestStartWatcher_RequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, slog.Default())
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true}, slog.Default())
	require.NoError(t, err)

	select {
	case path := <-events:
		assert.Equal(t, "a.pdf", filepath.Base(path))
	case <-time.After(2 * time.Second):
		t.Fatal("expected initial-scan event")
	}
}
