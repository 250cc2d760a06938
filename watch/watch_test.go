package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no file event")
		return ""
	}
}

func TestWatchFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "selene.toml")
	other := filepath.Join(dir, "other.toml")

	w, err := New(context.Background())
	require.NoError(t, err)

	events := make(chan string, 16)
	require.NoError(t, w.Watch(target, func(path string, op fsnotify.Op) {
		events <- path
	}))

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`std = "lua51"`), 0o644))
	require.Equal(t, target, waitFor(t, events))

	w.Unwatch(target)
	require.NoError(t, w.Close())
}

func TestWatchMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(context.Background())
	require.NoError(t, err)
	err = w.Watch(filepath.Join(t.TempDir(), "missing", "selene"), func(string, fsnotify.Op) {})
	require.Error(t, err)
	require.NoError(t, w.Close())
}
