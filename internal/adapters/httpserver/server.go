// Package httpserver serves the build output for local development.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/press/internal/adapters/livereload"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// ShutdownTimeout bounds a graceful Stop.
const ShutdownTimeout = 5 * time.Second

// LiveReloadPath is the WebSocket endpoint for LiveReload browser extensions.
const LiveReloadPath = "/livereload"

// MetricsPath exposes the Prometheus registry.
const MetricsPath = "/metrics"

// Options configures a Server.
type Options struct {
	// Addr is the host:port to listen on. Port 0 picks a free port.
	Addr string
	// Root is the absolute path of the directory to serve.
	Root string
	// Hub enables live reload when non-nil.
	Hub *livereload.Hub
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics http.Handler
}

// Server is a static file server with live-reload endpoints.
type Server struct {
	opts   Options
	logger ports.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New creates a Server. It does not listen until Start is called.
func New(opts Options, logger ports.Logger) *Server {
	return &Server{opts: opts, logger: logger}
}

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var files http.Handler = siteHandler(s.opts.Root)
	if s.opts.Hub != nil {
		files = injectScript(files, livereload.ScriptTag)
		mux.Handle(livereload.ScriptPath, livereload.ScriptHandler())
		mux.Handle(livereload.EventsPath, s.opts.Hub.EventsHandler())
		mux.Handle(LiveReloadPath, s.opts.Hub.WebSocketHandler())
	}
	if s.opts.Metrics != nil {
		mux.Handle(MetricsPath, s.opts.Metrics)
	}
	mux.Handle("/", files)

	return mux
}

// Start binds the listener and serves in the background.
// It returns the bound address.
func (s *Server) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return s.ln.Addr().String(), nil
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to bind dev server"), "addr", s.opts.Addr)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	if s.opts.Hub != nil {
		srv.RegisterOnShutdown(s.opts.Hub.Close)
	}
	s.srv = srv
	s.ln = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(zerr.Wrap(err, "dev server stopped"))
		}
	}()

	addr := ln.Addr().String()
	s.logger.Info("serving " + s.opts.Root + " at http://" + addr)
	return addr, nil
}

// Stop shuts the server down, waiting at most ShutdownTimeout for open requests.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		return domain.ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		// Streaming connections never go idle; force them closed.
		_ = srv.Close()
		if !errors.Is(err, context.DeadlineExceeded) {
			return zerr.Wrap(err, "dev server shutdown")
		}
	}
	return nil
}

// siteHandler serves root, resolving extension-less URLs to their .html page
// the way the generated site links to them.
func siteHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" && path.Ext(clean) == "" && !strings.HasSuffix(r.URL.Path, "/") {
			page := filepath.Join(root, filepath.FromSlash(clean)+".html")
			if info, err := os.Stat(page); err == nil && info.Mode().IsRegular() {
				r = r.Clone(r.Context())
				r.URL.Path = clean + ".html"
			}
		}
		files.ServeHTTP(w, r)
	})
}
