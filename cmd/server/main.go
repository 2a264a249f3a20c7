// inkpad server entry point. Wires the encrypted document store, the docs
// service, and the HTTP API behind request-context, rate-limit, and
// access-log middleware.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/inkpad/internal/api"
	"github.com/kuitang/inkpad/internal/config"
	"github.com/kuitang/inkpad/internal/db"
	"github.com/kuitang/inkpad/internal/docs"
	"github.com/kuitang/inkpad/internal/obs"
	"github.com/kuitang/inkpad/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	dev, addr := config.ParseFlags()
	cfg := config.MustLoadConfig(dev, addr)
	cfg.PrintStartupSummary()

	obs.Init()
	logger := obs.Pkg("main")

	dek, err := cfg.DEK()
	if err != nil {
		logger.Error("failed to derive encryption key", "error", err)
		os.Exit(1)
	}

	store, err := db.Open(cfg.DatabasePath, dek)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()

	service := docs.NewService(store)
	handler := api.NewHandler(service)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	// Outermost first: correlation IDs, then rate limiting, then access logs,
	// so a throttled request still gets a request ID but no access-log entry
	// claims it was served.
	var root http.Handler = mux
	root = obs.AccessLogMiddleware("api", root)
	root = ratelimit.Middleware(limiter, root)
	root = obs.RequestContextMiddleware(root)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
