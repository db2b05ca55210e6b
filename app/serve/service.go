package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/adrianliechti/devserve/app"
	"github.com/adrianliechti/devserve/app/config"
	"github.com/adrianliechti/devserve/pkg/fs"
	fsos "github.com/adrianliechti/devserve/pkg/fs/os"
	"github.com/adrianliechti/devserve/pkg/livereload"
	"github.com/adrianliechti/devserve/pkg/metrics"
	"github.com/adrianliechti/devserve/pkg/mime"
	"github.com/adrianliechti/devserve/pkg/sftp"
	"github.com/adrianliechti/devserve/pkg/static"
	"github.com/adrianliechti/devserve/pkg/system"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

type Endpoint struct {
	Name string
	URL  string
}

// Service is the set of servers for one served root. All listeners are bound
// by Start; Run serves on them until the context is done.
type Service struct {
	config *config.Config
	logger *slog.Logger

	server   *static.Server
	listener net.Listener

	hub *livereload.Hub

	sftp         *sftp.Server
	sftpListener net.Listener

	metrics         *metrics.Metrics
	metricsListener net.Listener
}

func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	table, err := mime.New(cfg.Mime)

	if err != nil {
		return nil, err
	}

	root, err := fs.NewRoot(cfg.Root)

	if err != nil {
		return nil, err
	}

	s := &Service{
		config: cfg,
		logger: logger,
	}

	options := static.ServerOptions{
		Root: root.Path(),
		Mime: table,

		Index:          cfg.Index,
		DisableListing: !cfg.Listing,
		Fallback:       cfg.Fallback,

		Sniff: cfg.Sniff,
		Cache: cfg.Cache,

		Logger: logger,
	}

	if cfg.Live {
		s.hub = livereload.NewHub(root.Path())

		options.Inject = livereload.Snippet
		options.Endpoints = s.hub.Endpoints()
	}

	if cfg.Metrics {
		s.metrics = metrics.New()
		options.Middleware = []fiber.Handler{s.metrics.Middleware()}
	}

	if cfg.SFTP {
		if s.sftp, err = sftp.NewServer(root, &sftp.ServerOptions{Logger: logger}); err != nil {
			return nil, err
		}
	}

	if s.server, err = static.New(options); err != nil {
		return nil, err
	}

	if s.listener, err = system.Listen(ctx, cfg.Address()); err != nil {
		return nil, err
	}

	if s.sftp != nil {
		if s.sftpListener, err = s.listen(ctx, cfg.SFTPPort); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}

	if s.metrics != nil {
		if s.metricsListener, err = s.listen(ctx, cfg.MetricsPort); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}

	return s, nil
}

func (s *Service) listen(ctx context.Context, preference int) (net.Listener, error) {
	port, err := app.PortOrRandom(s.config.Bind, preference)

	if err != nil {
		return nil, err
	}

	return system.Listen(ctx, app.HostPort(s.config.Bind, port))
}

func (s *Service) Root() string {
	return s.server.Root()
}

// URL is the address of the served root.
func (s *Service) URL() string {
	return s.url(s.listener, "/")
}

func (s *Service) url(ln net.Listener, path string) string {
	return "http://" + app.HostPort(app.DisplayHost(s.config.Bind), system.Port(ln)) + path
}

func (s *Service) Endpoints() []Endpoint {
	result := []Endpoint{
		{"HTTP", s.URL()},
	}

	if s.hub != nil {
		result = append(result, Endpoint{"Live Reload", s.url(s.listener, livereload.EventsPath)})
	}

	if s.sftpListener != nil {
		result = append(result, Endpoint{"SFTP", "sftp://" + app.HostPort(app.DisplayHost(s.config.Bind), system.Port(s.sftpListener))})
	}

	if s.metricsListener != nil {
		result = append(result, Endpoint{"Metrics", s.url(s.metricsListener, metrics.Path)})
	}

	return result
}

// Run serves until ctx is done or one of the servers fails. The errors of
// all servers are returned together.
func (s *Service) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var result *multierror.Error

	run := func(name string, fn func() error) {
		group.Go(func() error {
			err := fn()

			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}

			return err
		})
	}

	if s.hub != nil {
		watcher, err := fsos.NewWatcher(s.logger)

		if err != nil {
			return errors.Join(err, s.Close())
		}

		events, err := watcher.Watch(ctx, s.server.Root())

		if err != nil {
			return errors.Join(err, s.Close())
		}

		run("livereload", func() error {
			s.hub.Run(ctx, events)
			return nil
		})
	}

	run("http", func() error {
		return s.server.Serve(ctx, s.listener)
	})

	if s.sftp != nil {
		run("sftp", func() error {
			return s.sftp.Serve(ctx, s.sftpListener)
		})
	}

	if s.metrics != nil {
		run("metrics", func() error {
			return s.metrics.Serve(ctx, s.metricsListener)
		})
	}

	group.Wait()

	return result.ErrorOrNil()
}

// Close releases the listeners of a service that is not running.
func (s *Service) Close() error {
	var result *multierror.Error

	for _, ln := range []net.Listener{s.listener, s.sftpListener, s.metricsListener} {
		if ln == nil {
			continue
		}

		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
