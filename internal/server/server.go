// Package server is the local HTTP gateway: a JSON API over the logbook and
// the browser application shell, optionally fetched from a remote origin
// through the offline cache controller.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/offline"
	"github.com/nhle/cub-fuel-log/internal/shell"
)

// ClientCookie carries the offline client ID of a browser.
const ClientCookie = "cub_client"

// Server is the cub HTTP gateway.
type Server struct {
	svc            *logbook.Service
	reg            *offline.Registration
	origin         *url.URL
	metricsEnabled bool
}

// NewServer creates a gateway that serves the embedded shell.
func NewServer(svc *logbook.Service) *Server {
	return &Server{svc: svc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetShellOrigin serves the shell from origin through reg instead of the
// embedded copy.
func (s *Server) SetShellOrigin(origin *url.URL, reg *offline.Registration) {
	s.origin = origin
	s.reg = reg
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Delete("/", s.handleDeleteAll)
			r.Get("/preview", s.handlePreview)
			r.Get("/latest", s.handleLatest)
			r.Get("/{id}", s.handleGetRecord)
			r.Put("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})
		r.Get("/summary", s.handleSummary)
		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
		r.Get("/offline", s.handleOffline)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if s.origin != nil && s.reg != nil {
		r.Handle("/*", s.clientMiddleware(s.shellProxy()))
	} else {
		r.Handle("/*", shell.Handler())
	}

	return r
}

// shellProxy forwards shell requests to the origin. The registration is the
// proxy transport, so the offline controller answers when the origin is
// unreachable.
func (s *Server) shellProxy() http.Handler {
	origin := s.origin
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.SetXForwarded()
		},
		Transport: s.reg,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("gateway: %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "application shell unavailable offline", http.StatusBadGateway)
		},
	}
}

// clientMiddleware attaches every browser to the offline registration and
// remembers it in a cookie.
func (s *Server) clientMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(ClientCookie)
		if err != nil || !s.reg.Known(c.Value) {
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    s.reg.Attach(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("gateway: listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
