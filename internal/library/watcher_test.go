package library

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingReloader struct {
	mu       sync.Mutex
	reloaded []string
	removed  []string
}

func (r *recordingReloader) Reload(_ context.Context, path string) (*Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloaded = append(r.reloaded, path)
	return nil, nil
}

func (r *recordingReloader) Remove(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return true
}

func (r *recordingReloader) snapshot() (reloaded, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reloaded...), append([]string(nil), r.removed...)
}

func TestWatcher_ReloadsAndRemoves(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recordingReloader{}
	w, err := NewWatcher(rec, dir, filepath.Join(dir, DefaultCatalogFile), 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	path := filepath.Join(dir, "post.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("## Draft\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.bin"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		reloaded, _ := rec.snapshot()
		return len(reloaded) > 0
	}, 5*time.Second, 20*time.Millisecond)

	// Let any straggling events settle; rapid writes coalesce.
	time.Sleep(200 * time.Millisecond)
	reloaded, _ := rec.snapshot()
	assert.Equal(t, []string{path}, reloaded)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, removed := rec.snapshot()
		return len(removed) == 1 && removed[0] == path
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_CatalogChangeReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	catalog := filepath.Join(dir, DefaultCatalogFile)
	rec := &recordingReloader{}
	w, err := NewWatcher(rec, dir, catalog, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(catalog, []byte("posts: []\n"), 0o644))
	require.Eventually(t, func() bool {
		reloaded, _ := rec.snapshot()
		return len(reloaded) > 0 && reloaded[0] == catalog
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w, err := NewWatcher(&recordingReloader{}, dir, filepath.Join(dir, DefaultCatalogFile), 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_StartMissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := filepath.Join(t.TempDir(), "absent")
	w, err := NewWatcher(&recordingReloader{}, dir, filepath.Join(dir, DefaultCatalogFile), 0, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	dir := t.TempDir()
	w, err := NewWatcher(&recordingReloader{}, dir, filepath.Join(dir, DefaultCatalogFile), 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}
