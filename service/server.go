package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const serverShutdownTimeout = 10 * time.Second

// Server is the HTTP face of the boundary. Routing and encoding live here;
// all validation semantics stay behind Service.
type Server struct {
	log    zerolog.Logger
	server *http.Server
}

func NewServer(log zerolog.Logger, listenAddr string, svc *Service, queries QueryHandler, registry *prometheus.Registry) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/", healthHandler).Methods(http.MethodGet)
	router.Handle("/subgraphs/id/{deployment}", &queryHandler{
		log:     log.With().Str("component", "query_handler").Logger(),
		service: svc,
		queries: queries,
	}).Methods(http.MethodPost)
	if registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return &Server{
		log: log.With().Str("component", "server").Logger(),
		server: &http.Server{
			Addr:    listenAddr,
			Handler: cors.Default().Handler(router),
		},
	}
}

// Handler returns the root handler, routing and middleware included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests before
// returning.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", s.server.Addr).Msg("server listening")
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
