package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

// Server is the HTTP front end: the audio API plus healthcheck and metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a server listening on bind.
func New(bind string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:         bind,
		Handler:      Router(handler, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// Router assembles the route table. Exposed separately so tests can drive the
// handler through httptest without binding a socket.
func Router(handler *Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(requestID)
	router.Use(requestLogger(logger))
	router.Use(metrics)

	router.Route("/v1/audio/user/{userID}/phrase/{phraseID}", func(r chi.Router) {
		r.Post("/", handler.Upload)
		r.Get("/{format}", handler.Download)
	})
	router.Get("/healthcheck", handler.Healthcheck)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api server draining")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api server stopped")
	return nil
}
