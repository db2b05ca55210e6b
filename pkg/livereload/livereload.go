// Package livereload tells open browser tabs to reload when files below the
// served root change. Changes arrive from a fs.Watcher and are pushed to
// every connected page as Server-Sent Events.
package livereload

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrianliechti/devserve/pkg/fs"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const (
	Prefix = "/__devserve"

	EventsPath = Prefix + "/livereload"
	ScriptPath = Prefix + "/livereload.js"

	// Snippet loads the client script; it is injected into HTML pages.
	Snippet = `<script src="` + ScriptPath + `"></script>`
)

const script = `(function () {
  var timer;
  var source = new EventSource("` + EventsPath + `");

  source.addEventListener("change", function () {
    clearTimeout(timer);
    timer = setTimeout(function () { window.location.reload(); }, 100);
  });
})();
`

var keepAlive = 15 * time.Second

type Change struct {
	Action fs.Action `json:"action"`
	Path   string    `json:"path"`
}

type Hub struct {
	root string

	mu     sync.Mutex
	closed bool

	subscribers map[chan Change]struct{}
}

func NewHub(root string) *Hub {
	return &Hub{
		root: root,

		subscribers: make(map[chan Change]struct{}),
	}
}

// Subscribe registers a listener. The returned function unregisters it; the
// channel is closed either way once the hub is closed.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, 16)

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.subscribers[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
}

// Publish hands a change to every subscriber. Slow subscribers miss changes
// rather than block the watcher.
func (h *Hub) Publish(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- change:
		default:
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// Run publishes watcher events until ctx is done or events is closed, then
// closes the hub.
func (h *Hub) Run(ctx context.Context, events <-chan fs.Event) {
	defer h.Close()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}

			h.Publish(Change{
				Action: e.Action,
				Path:   h.urlPath(e.Path),
			})

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) urlPath(name string) string {
	rel, err := filepath.Rel(h.root, name)

	if err != nil {
		return name
	}

	return "/" + filepath.ToSlash(rel)
}

func (h *Hub) Endpoints() map[string]fiber.Handler {
	return map[string]fiber.Handler{
		EventsPath: h.handleEvents,
		ScriptPath: handleScript,
	}
}

func handleScript(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJavaScriptCharsetUTF8)
	return c.SendString(script)
}

func (h *Hub) handleEvents(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	changes, unsubscribe := h.Subscribe()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, "retry: 1000\n\n")

		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return
				}

				data, err := json.Marshal(change)

				if err != nil {
					continue
				}

				fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)

			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}

			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}
