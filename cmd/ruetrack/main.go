package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zmemovies/rue-track/internal"
	"github.com/zmemovies/rue-track/internal/api"
	"github.com/zmemovies/rue-track/internal/config"
	"github.com/zmemovies/rue-track/internal/replica"
	"github.com/zmemovies/rue-track/internal/service"
	"github.com/zmemovies/rue-track/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ruetrack",
		Short:         "Rue's activity tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	return root
}

func newLogger(cfg *config.Config) (internal.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	var zc zap.Config
	if cfg.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	z, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}
	return internal.NewZapLogger(z.Sugar()), func() { _ = z.Sync() }, nil
}

type app struct {
	logger  internal.Logger
	tracker *service.Tracker
}

func (a *app) Logger() internal.Logger   { return a.logger }
func (a *app) Tracker() *service.Tracker { return a.tracker }

func buildTracker(ctx context.Context, cfg *config.Config, logger internal.Logger) (*service.Tracker, storage.DocumentStore, error) {
	store, err := storage.NewDocumentStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var remote replica.Backend = replica.Noop{}
	if cfg.SyncEnabled {
		remote = replica.NewHTTPReplica(cfg.SyncURL, cfg.SyncToken, cfg.SyncPoll, logger)
	}

	tracker, err := service.NewTracker(ctx, store, remote, logger, internal.SystemClock{}, internal.UUIDGenerator{})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return tracker, store, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*configPath)
			logger, flush, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			ctx := cmd.Context()
			tracker, store, err := buildTracker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			stopSync, err := tracker.StartSync(ctx)
			if err != nil {
				logger.Warnf("sync subscription failed: %v", err)
				stopSync = func() {}
			}
			defer stopSync()
			if cfg.SyncEnabled {
				tracker.SyncFromRemote(ctx)
			}

			// An externally edited document file acts as a local replica.
			if fs, ok := store.(*storage.FileStore); ok {
				stopWatch, err := fs.Watch(func() { tracker.Reload(context.Background()) })
				if err != nil {
					logger.Warnf("document watch failed: %v", err)
				} else {
					defer stopWatch()
				}
			}

			if cfg.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())
			api.RegisterRoutes(r, &app{logger: logger, tracker: tracker})

			srv := &http.Server{Addr: cfg.Addr, Handler: r}
			errCh := make(chan error, 1)
			go func() {
				logger.Infof("server running on %s", cfg.Addr)
				errCh <- srv.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-sigCh:
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
}

func newExportCmd(configPath *string) *cobra.Command {
	var date string

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the daily log export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*configPath)
			logger, flush, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			day := time.Now()
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			ctx := cmd.Context()
			tracker, store, err := buildTracker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			_, err = fmt.Fprint(cmd.OutOrStdout(), tracker.Export(day))
			return err
		},
	}
	export.Flags().StringVar(&date, "date", "", "day to export (YYYY-MM-DD, default today)")
	return export
}
