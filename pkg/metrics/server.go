package metrics

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

const Path = "/metrics"

// App serves the registry at Path.
func (m *Metrics) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get(Path, adaptor.HTTPHandler(m.Handler()))

	return app
}

func (m *Metrics) Serve(ctx context.Context, ln net.Listener) error {
	if ctx.Err() != nil {
		ln.Close()
		return nil
	}

	app := m.App()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			app.Shutdown()
		case <-done:
		}
	}()

	return app.Listener(ln)
}
