package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, p)
}

func (r *recorder) has(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.paths {
		if got == p {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string) *recorder {
	t.Helper()
	rec := &recorder{}
	w, err := New(zap.NewNop(), root, rec.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return rec
}

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	p := filepath.Join(root, "survey.gpkg")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return rec.has(p) }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	dir := filepath.Join(root, "DCIM")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.Eventually(t, func() bool { return rec.has(dir) }, 2*time.Second, 10*time.Millisecond)

	p := filepath.Join(dir, "photo.jpg")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(p, []byte("jpg"), 0o644)
		return rec.has(p)
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	hidden := filepath.Join(root, ".lock")
	visible := filepath.Join(root, "survey.qgs")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(visible, []byte("x"), 0o644))

	require.Eventually(t, func() bool { return rec.has(visible) }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, rec.has(hidden))
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(zap.NewNop(), filepath.Join(t.TempDir(), "absent"), func(string) {})
	assert.Error(t, err)
}
