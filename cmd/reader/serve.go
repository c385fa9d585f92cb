package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/romangod6/spaceflight-reader/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the article list, detail pages and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps(opts, "reader-http", false)
			if err != nil {
				return err
			}
			defer func() { _ = d.logger.Sync() }()

			if cmd.Flags().Changed("port") {
				d.cfg.Server.Port = port
			}
			if !d.cfg.Server.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			server, err := api.NewServer(d.cfg, d.service, d.metrics, d.logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			return waitForShutdown(cmd.Context(), server, d.logger, errCh)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func waitForShutdown(ctx context.Context, server *api.Server, logger *zap.Logger, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down server", zap.Error(err))
		return err
	}
	logger.Info("server shut down gracefully")
	return nil
}
