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

	"github.com/leviFrosty/witness-work-sub000/api"
	"github.com/leviFrosty/witness-work-sub000/store/sqlite"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port         int
		warmInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}

			store, err := sqlite.New(opts.dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer store.Close()

			handler := api.NewHandler(store, api.WithLogger(logger))
			if err := handler.Load(cmd.Context()); err != nil {
				return err
			}

			warmer := api.NewCacheWarmer(handler)
			warmer.Interval = warmInterval
			warmer.Enabled = warmInterval > 0
			warmer.Start()

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      api.NewRouter(handler),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", port), "db", opts.dbPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				warmer.Stop()
				return fmt.Errorf("server failed: %w", err)
			}

			logger.Info("shutting down server")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			warmer.Stop()
			if err := handler.FlushCache(ctx); err != nil {
				logger.Error("flushing cache", "error", err)
			}

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", envIntOr("WITNESS_PORT", 8080), "HTTP server port")
	cmd.Flags().DurationVar(&warmInterval, "warm-interval", 15*time.Minute, "cache warm interval (0 disables)")
	return cmd
}
