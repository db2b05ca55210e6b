// Package sftp exposes the served root read-only over SFTP, next to HTTP.
package sftp

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/adrianliechti/devserve/pkg/fs"

	"github.com/gliderlabs/ssh"
	"github.com/pkg/sftp"
	gossh "golang.org/x/crypto/ssh"
)

type Server struct {
	root   *fs.Root
	server *ssh.Server

	logger *slog.Logger
}

type ServerOptions struct {
	Logger *slog.Logger

	// HostKey is generated when nil.
	HostKey gossh.Signer
}

func NewServer(root *fs.Root, options *ServerOptions) (*Server, error) {
	if options == nil {
		options = new(ServerOptions)
	}

	logger := options.Logger

	if logger == nil {
		logger = slog.Default()
	}

	hostKey := options.HostKey

	if hostKey == nil {
		key, err := GenerateHostKey()

		if err != nil {
			return nil, err
		}

		hostKey = key
	}

	s := &Server{
		root:   root,
		logger: logger,
	}

	s.server = &ssh.Server{
		Handler: func(session ssh.Session) {
			io.WriteString(session, "SFTP server ready. Use SFTP for file transfer.\n")
		},

		SubsystemHandlers: map[string]ssh.SubsystemHandler{
			"sftp": s.handleSession,
		},
	}

	s.server.AddHostKey(hostKey)

	return s, nil
}

func GenerateHostKey() (gossh.Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)

	if err != nil {
		return nil, err
	}

	return gossh.NewSignerFromKey(key)
}

func (s *Server) handleSession(session ssh.Session) {
	s.logger.Info("sftp session", "user", session.User(), "remote", session.RemoteAddr())

	srv := NewRequestServer(session, s.root)

	if err := srv.Serve(); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("sftp session", "error", err)
	}

	srv.Close()
}

// Serve accepts SSH connections on ln until ctx is cancelled.
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
			s.Close()
		case <-done:
		}
	}()

	if err := s.server.Serve(ln); err != nil {
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}

		return err
	}

	return nil
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}

		if err := s.server.Close(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return err
		}
	}

	return nil
}

type RequestServer struct {
	server *sftp.RequestServer
}

func NewRequestServer(session io.ReadWriteCloser, root *fs.Root) *RequestServer {
	h := &handler{root}

	s := sftp.NewRequestServer(session, sftp.Handlers{
		FileGet:  h,
		FilePut:  h,
		FileCmd:  h,
		FileList: h,
	})

	return &RequestServer{
		server: s,
	}
}

func (s *RequestServer) Serve() error {
	return s.server.Serve()
}

func (s *RequestServer) Close() error {
	return s.server.Close()
}
