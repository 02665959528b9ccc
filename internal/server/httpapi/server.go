// Package httpapi exposes the development API over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/logging"
	"github.com/dmitrijs2005/planadmin/internal/server/records"
	"github.com/dmitrijs2005/planadmin/internal/server/users"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	users   *users.Service
	records *records.Service
	logger  logging.Logger
	router  chi.Router
}

func NewServer(addr string, l logging.Logger, us *users.Service, rs *records.Service) *Server {
	s := &Server{
		address: addr,
		logger:  l.With("module", "http_server"),
		users:   us,
		records: rs,
	}
	r := chi.NewRouter()
	s.registerRoutes(r)
	s.router = r
	return s
}

// Handler returns the routed handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
