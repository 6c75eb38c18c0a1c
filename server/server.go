package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fern/config"
	"fern/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds the size of request bodies.
const maxBodyBytes = 1 << 20

// Server is the compiler playground: an HTTP API that compiles and runs
// programs.
type Server struct {
	cfg     *config.Config
	router  *chi.Mux
	metrics *Metrics
}

// New creates a server for a configuration.
func New(cfg *config.Config) *Server {
	s := &Server{cfg: cfg, metrics: NewMetrics()}
	s.router = s.buildRouter()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.metrics.Middleware)
	r.Use(recoverer)

	if s.cfg.Serve.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.Serve.RateLimit, s.cfg.Serve.RateWindow))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Serve.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Post("/compile", s.handleCompile)
	r.Post("/run", s.handleRun)
	r.Post("/toys/{toy}", s.handleToy)

	return r
}

// ListenAndServe serves until ctx is cancelled and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		report.ReportInfo("Serve", "listening on "+s.cfg.Serve.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// recoverer turns a panicking handler into a 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if x := recover(); x != nil {
				if x == http.ErrAbortHandler {
					panic(x)
				}

				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: &errorBody{
					Kind:    "internal",
					Message: "internal server error",
				}})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
