package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/delivery/http/handler"
	"github.com/user/article-crawler/internal/delivery/http/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the article API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Background crawls stop when the process shuts down.
	baseCtx, stopCrawls := context.WithCancel(context.Background())
	defer stopCrawls()

	a, err := newApp(ctx, baseCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Warm(ctx); err != nil {
		logger.Warn("could not warm cache from archive", zap.Error(err))
	}

	h := handler.NewHandler(a.service, cfg.Site.Source, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.New(h, a.metrics, a.registry, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-quit.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	stopCrawls()
	a.service.Wait()

	logger.Info("server exiting")
	return nil
}
