// Package server exposes the small HTTP surface of the bot: health, metrics
// and the OAuth redirect target that shows users the code to paste back
// into the chat.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/metrics"
)

// Pinger reports whether the profile store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	db      Pinger
	httpSrv *http.Server
	port    int
	logger  zerolog.Logger
}

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	DB   Pinger
	Port int
	// CallbackRatePerMinute limits /oauth/callback hits per client IP.
	CallbackRatePerMinute int
}

func New(cfg ServerConfig) *Server {
	s := &Server{
		db:     cfg.DB,
		port:   cfg.Port,
		logger: log.WithComponent("server"),
	}

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes(cfg ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(observe)

	r.Get("/healthz", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	callbackLimit := cfg.CallbackRatePerMinute
	if callbackLimit <= 0 {
		callbackLimit = 30
	}
	r.With(httprate.LimitByIP(callbackLimit, time.Minute)).Get("/oauth/callback", s.handleOAuthCallback)

	return r
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// requestID reuses an inbound X-Request-ID or mints one, echoes it and
// stores it in the request context for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// observe records latency by route pattern to keep label cardinality fixed.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTP(r.Method, route, status, started)
	})
}
