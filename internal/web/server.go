// Package web serves the minter UI.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/history"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/session"
	"github.com/Klingon-tech/asset-minter/internal/wallet"
)

// maxBodySize is the maximum allowed request body size (64 KB).
const maxBodySize = 64 << 10

// Deps are the components the UI drives.
type Deps struct {
	Sessions *session.Store
	Builder  session.Builder
	Relay    *wallet.Relay
	History  *history.Store // nil = disabled
}

// Server is the web UI HTTP server.
type Server struct {
	addr         string
	explorerHost string
	secureCookie bool
	metrics      bool

	sessions *session.Store
	builder  session.Builder
	relay    *wallet.Relay
	history  *history.Store

	router chi.Router
	server *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

// New creates a web server listening on addr.
func New(addr string, cfg *config.Config, deps Deps) *Server {
	s := &Server{
		addr:         addr,
		explorerHost: cfg.Explorer.Host,
		secureCookie: cfg.Web.SecureCookie,
		metrics:      cfg.Metrics.Enabled,
		sessions:     deps.Sessions,
		builder:      deps.Builder,
		relay:        deps.Relay,
		history:      deps.History,
		logger:       klog.Web,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Submissions wait on the gateway.
		WriteTimeout: 2 * time.Minute,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Web server error")
		}
	}()

	s.logger.Info().Str("addr", s.Addr()).Msg("Web UI listening")
	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
