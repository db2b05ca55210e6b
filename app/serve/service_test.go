package serve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/adrianliechti/devserve/app/config"
	"github.com/adrianliechti/devserve/pkg/livereload"
	"github.com/adrianliechti/devserve/pkg/mime"
	"github.com/adrianliechti/devserve/pkg/system"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body><h1>erd</h1></body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "module.wasm"), []byte{0x00, 0x61, 0x73, 0x6d}, 0o644))

	cfg := config.Default()
	cfg.Root = root
	cfg.Port = 0

	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func run(t *testing.T, s *Service) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)

	go func() {
		result <- s.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-result:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("service did not stop")
		}
	})

	return cancel
}

func TestServiceServesRoot(t *testing.T) {
	cfg := newTestConfig(t)

	s, err := Start(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	endpoints := s.Endpoints()
	require.Len(t, endpoints, 1)
	assert.Equal(t, "HTTP", endpoints[0].Name)
	assert.Equal(t, s.URL(), endpoints[0].URL)

	run(t, s)

	resp, body := get(t, s.URL()+"module.wasm")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, mime.TypeWasm, resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, body)

	resp, _ = get(t, s.URL()+"missing.txt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServiceAllComponents(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Live = true
	cfg.SFTP = true
	cfg.SFTPPort = 0
	cfg.Metrics = true
	cfg.MetricsPort = 0

	s, err := Start(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	var names []string

	for _, e := range s.Endpoints() {
		names = append(names, e.Name)
	}

	assert.Equal(t, []string{"HTTP", "Live Reload", "SFTP", "Metrics"}, names)

	run(t, s)

	_, body := get(t, s.URL())
	assert.Contains(t, string(body), livereload.Snippet)

	resp, _ := get(t, strings.TrimSuffix(s.URL(), "/")+livereload.ScriptPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var metricsURL string

	for _, e := range s.Endpoints() {
		if e.Name == "Metrics" {
			metricsURL = e.URL
		}
	}

	resp, body = get(t, metricsURL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "devserve_http_requests_total")
}

func TestServiceStopsOnCancel(t *testing.T) {
	s, err := Start(context.Background(), newTestConfig(t), testLogger())
	require.NoError(t, err)

	addr := s.listener.Addr().String()

	cancel := run(t, s)
	cancel()

	// the port can be bound again once the service is gone
	require.Eventually(t, func() bool {
		ln, err := system.Listen(context.Background(), addr)

		if err != nil {
			return false
		}

		ln.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStartBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := newTestConfig(t)
	cfg.Port = system.Port(ln)

	_, err = Start(context.Background(), cfg, testLogger())

	var bindErr *system.BindError

	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(cfg.Port), bindErr.Addr)
}

func TestStartInvalidConfig(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Root = filepath.Join(cfg.Root, "missing")

	_, err := Start(context.Background(), cfg, testLogger())
	assert.Error(t, err)

	cfg = newTestConfig(t)
	cfg.Mime = map[string]string{"wasm": "application/wasm"}

	_, err = Start(context.Background(), cfg, testLogger())
	assert.ErrorIs(t, err, mime.ErrInvalidExtension)
}
