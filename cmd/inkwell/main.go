package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/app"
	"inkwell/internal/config"
	"inkwell/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	configPath string
	listen     bool
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "inkwell - An article management API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = app.NewLogger(cfg)
		return err
	},
	SilenceUsage: true,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server and the cleanup worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg, logger)
		if err != nil {
			logger.Error("Failed to build application", zap.Error(err))
			return err
		}
		defer closeApp(a)

		if err := a.Connect(ctx); err != nil {
			logger.Error("Database initialization failed", zap.Error(err))
			return err
		}

		if w := a.Worker(); w != nil {
			go w.Start(ctx)
		}

		if cfg.Hosted() && !listen {
			logger.Info("Production mode: requests are served by the hosted handler. Pass --listen to bind anyway.")
			<-ctx.Done()
			return nil
		}

		return serve(ctx, a.Server, cfg.Server.Addr(), cfg.Server.ShutdownTimeoutDuration(), logger)
	},
}

// serve runs srv until ctx is done or the listener fails, then shuts it down
// within timeout. A listener failure is returned.
func serve(ctx context.Context, srv *server.Server, addr string, timeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("Web server failed", zap.Error(serveErr))
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Goodbye!")
	return serveErr
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the media cleanup worker",
	Run: func(cmd *cobra.Command, args []string) {
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to build application", zap.Error(err))
		}
		defer closeApp(a)

		w := a.Worker()
		if w == nil {
			logger.Fatal("No cleanup queue configured", zap.String("env", config.EnvRedisAddr))
		}
		w.Start(ctx)
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the HTTP route table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer closeApp(a)

		routes, err := a.Server.Routes()
		if err != nil {
			return err
		}
		for _, r := range routes {
			fmt.Fprintln(cmd.OutOrStdout(), r.String())
		}
		return nil
	},
}

func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		a.Logger.Warn("Shutdown incomplete", zap.Error(err))
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	serverCmd.Flags().BoolVar(&listen, "listen", false, "Bind a listener even in production mode")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(routesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
