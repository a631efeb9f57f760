package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"zhigulbot/metrics"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// CycleRunner settles the current period on demand. The scheduler implements
// it so manual runs share the lease and spacing of scheduled ticks.
type CycleRunner interface {
	RunNow(ctx context.Context) (*models.CycleResult, error)
}

// Server is the admin HTTP API
type Server struct {
	accounts   service.AccountService
	prices     service.PriceService
	settlement CycleRunner
	router     chi.Router
	httpServer *http.Server
}

// NewServer builds the router; call ListenAndServe to start serving on addr
func NewServer(addr string, accounts service.AccountService, prices service.PriceService, settlement CycleRunner) *Server {
	s := &Server{
		accounts:   accounts,
		prices:     prices,
		settlement: settlement,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "zhigulbot"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/prices", s.getPrices)
		r.Get("/cycles/latest", s.getLatestCycle)

		r.Get("/queue", s.getQueue)
		r.Post("/queue", s.replenishQueue)

		r.Post("/settlement/run", s.runSettlement)

		r.Get("/accounts/{externalID}", s.getAccount)
		r.Get("/accounts/{externalID}/wagers", s.getAccountWagers)
	})
	return r
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server is shut down
func (s *Server) ListenAndServe() error {
	log.WithField("addr", s.httpServer.Addr).Info("Admin API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to statuses; unknown errors are
// logged and hidden behind a generic message
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPriceStateMissing):
		writeError(w, "price state not initialized, run seed", http.StatusServiceUnavailable)
	case errors.Is(err, service.ErrQueueExhausted):
		writeError(w, "future price queue is empty", http.StatusServiceUnavailable)
	case errors.Is(err, service.ErrCycleInProgress), errors.Is(err, service.ErrStateLocked):
		writeError(w, "settlement in progress", http.StatusConflict)
	case errors.Is(err, service.ErrCycleTooSoon):
		writeError(w, "this period has already been settled", http.StatusConflict)
	case errors.Is(err, service.ErrEmptyReplenish), errors.Is(err, service.ErrInvalidPrice):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithFields(log.Fields{
			"path":  r.URL.Path,
			"error": err,
		}).Error("Admin API request failed")
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}
