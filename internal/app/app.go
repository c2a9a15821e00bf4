// Package app assembles the service from a loaded configuration. The CLI and
// the hosted entrypoint both build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"inkwell/internal/config"
	"inkwell/internal/media"
	"inkwell/internal/server"
	"inkwell/internal/store"
	"inkwell/internal/worker"

	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *store.MongoStore
	Media  media.Uploader
	// Queue is nil when no Redis address is configured.
	Queue  *worker.Queue
	Server *server.Server
}

// NewLogger returns a development logger, or a JSON production logger in
// hosted mode.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Hosted() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// New builds every component without connecting to MongoDB.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	uploader, err := newMedia(cfg.Media, logger)
	if err != nil {
		return nil, err
	}
	a.Media = uploader

	if cfg.Queue.Enabled() {
		q, err := worker.NewQueue(cfg.Queue.Addr)
		if err != nil {
			a.closeMedia()
			return nil, fmt.Errorf("cleanup queue: %w", err)
		}
		a.Queue = q
	}

	a.Store = store.NewMongoStore(store.MongoOptions{
		URI:        cfg.Database.URI,
		Database:   cfg.Database.Name,
		Collection: cfg.Database.Collection,
		Timeout:    cfg.Database.TimeoutDuration(),
	}, logger)

	opts := []server.Option{
		server.WithPagination(cfg.Pagination.DefaultPerPage, cfg.Pagination.MaxPerPage),
		server.WithMaxUploadSize(cfg.Media.MaxUploadSizeBytes()),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if a.Queue != nil {
		opts = append(opts, server.WithCleanupQueue(a.Queue))
	}
	a.Server = server.NewServer(a.Store, a.Media, logger, opts...)

	logger.Info("Application assembled",
		zap.String("env", cfg.Env),
		zap.String("media_provider", cfg.Media.Provider),
		zap.Bool("cleanup_queue", a.Queue != nil))
	return a, nil
}

func newMedia(cfg config.MediaConfig, logger *zap.Logger) (media.Uploader, error) {
	switch cfg.Provider {
	case config.ProviderCloudinary:
		return media.NewCloudinary(media.CloudinaryOptions{
			CloudName: cfg.CloudName,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Folder:    cfg.Folder,
		}, logger)
	case config.ProviderLocal:
		return media.OpenLocal(cfg.LocalPath, cfg.PublicURL, logger)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

// Connect opens the shared MongoDB client.
func (a *App) Connect(ctx context.Context) error {
	return a.Store.Connect(ctx)
}

// Worker returns the cleanup worker, or nil when the queue is disabled.
func (a *App) Worker() *worker.Worker {
	if a.Queue == nil {
		return nil
	}
	return worker.NewWorker(a.Queue, a.Media, a.Logger)
}

func (a *App) closeMedia() error {
	if c, ok := a.Media.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Close releases the database client, the queue and the media host.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close queue: %w", err))
		}
	}
	if err := a.closeMedia(); err != nil {
		errs = append(errs, fmt.Errorf("close media: %w", err))
	}
	return errors.Join(errs...)
}
