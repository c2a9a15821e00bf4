// Package handler is the entrypoint for hosts that route each request to a
// function instead of running a long-lived listener.
package handler

import (
	"context"
	"net/http"
	"sync"

	"inkwell/internal/app"
	"inkwell/internal/config"

	"go.uber.org/zap"
)

var (
	once    sync.Once
	service http.Handler
)

// Handler serves one request. The application is assembled on the first call
// and reused by every later one, so the database client is shared across
// invocations. A failed database connection is logged and the API answers
// 503 until the process is replaced.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() { service = build(context.Background(), fallbackLogger()) })
	service.ServeHTTP(w, r)
}

// fallbackLogger reports failures that happen before the configured logger exists.
func fallbackLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func build(ctx context.Context, fallback *zap.Logger) http.Handler {
	cfg, err := config.Load("")
	if err != nil {
		fallback.Error("Failed to load configuration", zap.Error(err))
		return unavailable()
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		fallback.Warn("Failed to build configured logger", zap.Error(err))
		logger = fallback
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to build application", zap.Error(err))
		return unavailable()
	}

	if err := a.Connect(ctx); err != nil {
		logger.Error("Database initialization failed", zap.Error(err))
	}
	return a.Server.Handler()
}

func unavailable() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}` + "\n"))
	})
}
