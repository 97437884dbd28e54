// Package server assembles the HTTP handler and runs the carpool server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/carpool/internal/config"
	"github.com/mmynk/carpool/internal/metrics"
	"github.com/mmynk/carpool/internal/middleware"
	"github.com/mmynk/carpool/internal/service"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

// writeProcedures are subject to the write rate limit.
var writeProcedures = []string{
	apiconnect.CarpoolServiceSaveDayProcedure,
	apiconnect.GroupServiceCreateGroupProcedure,
	apiconnect.GroupServiceSetMemberProcedure,
}

// Deps are the collaborators of the HTTP handler.
type Deps struct {
	Store    storage.Store
	Config   *config.Config
	Registry *prometheus.Registry

	// Now overrides the service clock in tests.
	Now func() time.Time
}

// NewHandler builds the router: Connect services under their paths,
// /metrics for Prometheus and /healthz.
func NewHandler(deps Deps) http.Handler {
	cfg := deps.Config

	opts := service.Options{
		Mode:    cfg.Mode,
		Policy:  cfg.Policy,
		Metrics: metrics.NewCollector(deps.Registry),
		Now:     deps.Now,
	}
	limiter := middleware.NewWriteLimiter(cfg.WriteRateLimit, cfg.WriteRateBurst, writeProcedures...)
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), limiter.Interceptor())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:         300,
	}))

	carpoolPath, carpoolHandler := apiconnect.NewCarpoolServiceHandler(service.NewCarpoolService(deps.Store, opts), interceptors)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(service.NewGroupService(deps.Store, opts), interceptors)
	r.Mount(carpoolPath, carpoolHandler)
	r.Mount(groupPath, groupHandler)

	r.Handle("/metrics", metrics.Handler(deps.Registry))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, deps Deps) error {
	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(NewHandler(deps), &http2.Server{})

	srv := &http.Server{
		Addr:         deps.Config.ServerAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", srv.Addr,
			"mode", deps.Config.Mode,
			"policy", deps.Config.Policy.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
