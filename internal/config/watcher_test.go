package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_StartRunsInitialReloadSynchronously(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers: {}\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(WatcherConfig{Paths: []string{path}, DebounceMillis: 50}, func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	assert.Equal(t, int32(1), reloads.Load())
}

func TestWatcher_WriteTriggersDebouncedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers: {}\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(WatcherConfig{Paths: []string{path}, DebounceMillis: 50}, func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("tiers: {global: []}\n"), 0o644))

	require.Eventually(t, func() bool {
		return reloads.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewWatcher_RejectsEmptyPaths(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{}, func() error { return nil })
	assert.Error(t, err)
}

func TestNewWatcher_RejectsNilReload(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{Paths: []string{"x"}}, nil)
	assert.Error(t, err)
}
