// Package static serves the files below a root directory over HTTP.
//
// Request paths are resolved through an fs.Root, so nothing outside the root
// is ever read. Directories are answered with their index file or an HTML
// listing, files with their bytes and a content type from a mime.Table.
package static

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/adrianliechti/devserve/pkg/fs"
	"github.com/adrianliechti/devserve/pkg/mime"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

var DefaultIndex = []string{"index.html", "index.htm"}

type ServerOptions struct {
	Root string
	Mime *mime.Table

	// Index files tried in order for directory requests.
	Index []string

	DisableListing bool

	// Fallback is served for missing paths without an extension, so client
	// side routes of single-page apps resolve to the app.
	Fallback string

	// Sniff detects the content type of files with an unknown extension
	// instead of sending them as binary.
	Sniff bool

	// Cache omits the no-cache header on responses.
	Cache bool

	// Inject is placed before </body> of every HTML response.
	Inject string

	Logger *slog.Logger

	// Middleware runs before the access log, so it sees final status codes.
	Middleware []fiber.Handler

	// Endpoints are GET routes answered before any file lookup.
	Endpoints map[string]fiber.Handler
}

type Server struct {
	app *fiber.App

	root *fs.Root
	mime *mime.Table

	index    []string
	listing  bool
	fallback string
	sniff    bool
	inject   []byte

	logger *slog.Logger

	open func(name string) (io.ReadSeekCloser, error)
}

func New(options ServerOptions) (*Server, error) {
	root, err := fs.NewRoot(options.Root)

	if err != nil {
		return nil, err
	}

	table := options.Mime

	if table == nil {
		if table, err = mime.New(nil); err != nil {
			return nil, err
		}
	}

	index := options.Index

	if len(index) == 0 {
		index = DefaultIndex
	}

	logger := options.Logger

	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		root: root,
		mime: table,

		index:    index,
		listing:  !options.DisableListing,
		fallback: strings.TrimPrefix(options.Fallback, "/"),
		sniff:    options.Sniff,

		logger: logger,

		open: openFile,
	}

	if options.Inject != "" {
		s.inject = []byte(options.Inject)
	}

	app := fiber.New(fiber.Config{
		AppName:      "devserve",
		ServerHeader: "devserve",

		DisableStartupMessage: true,

		ErrorHandler: s.handleError,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	for _, h := range options.Middleware {
		app.Use(h)
	}

	app.Use(accessLog(logger))

	if !options.Cache {
		app.Use(func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderCacheControl, "no-cache")
			return c.Next()
		})
	}

	for route, h := range options.Endpoints {
		app.Get(route, h)
	}

	app.Use(s.handle)

	s.app = app

	return s, nil
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Root() string {
	return s.root.Path()
}

// Serve answers requests on ln until ctx is cancelled. A cancelled context
// is a clean shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ctx.Err() != nil {
		ln.Close()
		return nil
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
				s.logger.Warn("server shutdown", "error", err)
			}

		case <-done:
		}
	}()

	return s.app.Listener(ln)
}

func (s *Server) handle(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead:
	default:
		return fiber.NewError(fiber.StatusNotImplemented, "Unsupported method")
	}

	raw := string(c.Request().URI().PathOriginal())

	if raw == "" {
		raw = "/"
	}

	name, err := url.PathUnescape(raw)

	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Bad request path")
	}

	p, err := s.root.Resolve(name)

	if err != nil {
		return s.notFound(c, name, err)
	}

	info, err := os.Stat(p)

	if err != nil {
		return s.notFound(c, name, fs.Classify(err))
	}

	if info.IsDir() {
		return s.serveDir(c, raw, name, p)
	}

	if strings.HasSuffix(name, "/") {
		return ErrNotFound
	}

	return s.serveFile(c, name, p, info)
}

func (s *Server) serveDir(c *fiber.Ctx, raw, name, dir string) error {
	if !strings.HasSuffix(raw, "/") {
		target := "/" + strings.TrimLeft(raw, "/") + "/"

		if query := c.Request().URI().QueryString(); len(query) > 0 {
			target += "?" + string(query)
		}

		return c.Redirect(target, fiber.StatusMovedPermanently)
	}

	for _, index := range s.index {
		indexName := path.Join(name, index)

		p, err := s.root.Resolve(indexName)

		if err != nil {
			continue
		}

		info, err := os.Stat(p)

		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		return s.serveFile(c, indexName, p, info)
	}

	if !s.listing {
		return ErrListingDisabled
	}

	body, err := renderListing(dir, name)

	if err != nil {
		return fs.Classify(err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Send(s.injectHTML(body))
}

// notFound serves the fallback for missing extensionless paths and returns
// err otherwise.
func (s *Server) notFound(c *fiber.Ctx, name string, err error) error {
	if s.fallback == "" || !errors.Is(err, ErrNotFound) || path.Ext(name) != "" {
		return err
	}

	return s.serveFallback(c)
}

func (s *Server) serveFallback(c *fiber.Ctx) error {
	p, err := s.root.Resolve("/" + s.fallback)

	if err != nil {
		return err
	}

	info, err := os.Stat(p)

	if err != nil {
		return fs.Classify(err)
	}

	return s.serveFile(c, s.fallback, p, info)
}

// serveFile sends the file at p. The content type follows the requested
// name, not p, so a symlink keeps the type of its own extension.
func (s *Server) serveFile(c *fiber.Ctx, name, p string, info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return ErrNotFound
	}

	modtime := info.ModTime().UTC().Truncate(time.Second)

	if since := c.Get(fiber.HeaderIfModifiedSince); since != "" && c.Get(fiber.HeaderIfNoneMatch) == "" {
		if t, err := http.ParseTime(since); err == nil && !modtime.After(t) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	f, err := s.open(p)

	if err != nil {
		return fs.Classify(err)
	}

	contentType, err := s.contentType(name, f)

	if err != nil {
		f.Close()
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderLastModified, modtime.Format(http.TimeFormat))

	if s.inject != nil && isHTML(contentType) {
		defer f.Close()

		data, err := io.ReadAll(f)

		if err != nil {
			return err
		}

		return c.Send(s.injectHTML(data))
	}

	// the stream is closed by fasthttp once the body is written
	return c.SendStream(f, int(info.Size()))
}

func (s *Server) contentType(name string, f io.ReadSeeker) (string, error) {
	if typ := s.mime.Lookup(name); typ != "" {
		return typ, nil
	}

	if !s.sniff {
		return mime.TypeBinary, nil
	}

	detected, err := mimetype.DetectReader(f)

	if err != nil {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return detected.String(), nil
}

func (s *Server) injectHTML(body []byte) []byte {
	if s.inject == nil {
		return body
	}

	idx := max(bytes.LastIndex(body, []byte("</body>")), bytes.LastIndex(body, []byte("</BODY>")))

	if idx < 0 {
		return append(body, s.inject...)
	}

	result := make([]byte, 0, len(body)+len(s.inject))
	result = append(result, body[:idx]...)
	result = append(result, s.inject...)
	result = append(result, body[idx:]...)

	return result
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error

	switch {
	case errors.Is(err, ErrForbiddenPath), errors.Is(err, ErrListingDisabled):
		code = fiber.StatusForbidden
		message = "Forbidden"

	case errors.Is(err, ErrNotFound):
		code = fiber.StatusNotFound
		message = "File not found"

	case errors.As(err, &e):
		code = e.Code
		message = e.Message

	default:
		s.logger.Error("request failed", "method", c.Method(), "path", c.OriginalURL(), "error", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.Status(code).SendString(message)
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(contentType, fiber.MIMETextHTML)
}

func openFile(name string) (io.ReadSeekCloser, error) {
	return os.Open(name)
}
