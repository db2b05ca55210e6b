package os

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrianliechti/devserve/pkg/fs"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, events <-chan fs.Event, action fs.Action, path string) {
	t.Helper()

	timeout := time.After(5 * time.Second)

	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed")

			if e.Action == action && e.Path == path {
				return
			}

		case <-timeout:
			t.Fatalf("no %s event for %s", action, path)
		}
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, root)
	require.NoError(t, err)

	file := filepath.Join(root, "module.wasm")

	require.NoError(t, os.WriteFile(file, []byte{0x00}, 0o644))
	waitFor(t, events, fs.Create, file)

	require.NoError(t, os.Remove(file))
	waitFor(t, events, fs.Remove, file)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, root)
	require.NoError(t, err)

	dir := filepath.Join(root, "pkg")

	require.NoError(t, os.Mkdir(dir, 0o755))
	waitFor(t, events, fs.Create, dir)

	file := filepath.Join(dir, "erd_wasm.js")

	require.NoError(t, os.WriteFile(file, []byte("export {}"), 0o644))
	waitFor(t, events, fs.Create, file)
}

func TestWatcherStopsWithContext(t *testing.T) {
	w, err := NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	events, err := w.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestWatcherLogsErrors(t *testing.T) {
	var logs syncBuffer

	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	w, err := NewWatcher(logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = w.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	w.watcher.Errors <- errors.New("event queue overflow")

	require.Eventually(t, func() bool {
		out := logs.String()
		return strings.Contains(out, "watch error") && strings.Contains(out, "event queue overflow")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherMissingRoot(t *testing.T) {
	w, err := NewWatcher(nil)
	require.NoError(t, err)

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestIgnored(t *testing.T) {
	require.True(t, ignored(filepath.Join("src", ".git", "HEAD")))
	require.False(t, ignored(filepath.Join("src", ".github", "ci.yml")))
}
