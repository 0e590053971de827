// Package health serves liveness and readiness probes for the bot.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"

	shutdownTimeout = 5 * time.Second
)

// ReadyFunc reports whether the Discord gateway is connected.
type ReadyFunc func() bool

type Response struct {
	Status  string `json:"status"`
	Gateway bool   `json:"gateway"`
}

func NewRouter(ready ReadyFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := Response{Status: StatusOK, Gateway: ready()}
		code := http.StatusOK
		if !resp.Gateway {
			resp.Status = StatusUnavailable
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	})

	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, ready ReadyFunc, logger *slog.Logger) error {
	logger = logging.Named(logger, "health")
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ready),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
