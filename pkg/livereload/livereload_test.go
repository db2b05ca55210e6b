package livereload

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrianliechti/devserve/pkg/fs"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublish(t *testing.T) {
	hub := NewHub("/srv")

	a, unsubscribeA := hub.Subscribe()
	b, unsubscribeB := hub.Subscribe()

	assert.Equal(t, 2, hub.Subscribers())

	hub.Publish(Change{Action: fs.Modify, Path: "/index.html"})

	assert.Equal(t, Change{Action: fs.Modify, Path: "/index.html"}, <-a)
	assert.Equal(t, Change{Action: fs.Modify, Path: "/index.html"}, <-b)

	unsubscribeA()
	unsubscribeA()

	assert.Equal(t, 1, hub.Subscribers())

	_, ok := <-a
	assert.False(t, ok)

	hub.Close()

	_, ok = <-b
	assert.False(t, ok)

	unsubscribeB()

	c, _ := hub.Subscribe()

	_, ok = <-c
	assert.False(t, ok)
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub("/srv")
	defer hub.Close()

	ch, _ := hub.Subscribe()

	for i := 0; i < 100; i++ {
		hub.Publish(Change{Action: fs.Modify, Path: fmt.Sprintf("/%d", i)})
	}

	assert.Equal(t, cap(ch), len(ch))
}

func TestHubRun(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "site")

	hub := NewHub(root)

	changes, _ := hub.Subscribe()

	events := make(chan fs.Event)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		hub.Run(ctx, events)
		close(done)
	}()

	events <- fs.Event{Action: fs.Create, Path: filepath.Join(root, "pkg", "erd_wasm_bg.wasm")}

	assert.Equal(t, Change{Action: fs.Create, Path: "/pkg/erd_wasm_bg.wasm"}, <-changes)

	close(events)
	<-done

	_, ok := <-changes
	assert.False(t, ok)
}

func TestScriptEndpoint(t *testing.T) {
	hub := NewHub("/srv")
	defer hub.Close()

	app := fiber.New()

	for route, h := range hub.Endpoints() {
		app.Get(route, h)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, ScriptPath, nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, string(body), EventsPath)
	assert.Contains(t, Snippet, ScriptPath)
}

func TestEventsEndpointStreams(t *testing.T) {
	hub := NewHub("/srv")

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	for route, h := range hub.Endpoints() {
		app.Get(route, h)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go app.Listener(ln)
	defer app.Shutdown()

	resp, err := http.Get(fmt.Sprintf("http://%s%s", ln.Addr(), EventsPath))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "retry: 1000\n", line)

	require.Eventually(t, func() bool {
		return hub.Subscribers() == 1
	}, 5*time.Second, 10*time.Millisecond)

	hub.Publish(Change{Action: fs.Modify, Path: "/index.html"})

	var lines []string

	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)

		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	assert.Equal(t, []string{
		"event: change",
		`data: {"action":"modify","path":"/index.html"}`,
	}, lines)

	hub.Close()

	_, err = io.ReadAll(reader)
	assert.NoError(t, err)
}
