package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/mdreadtime/internal/api"
	"github.com/hoanghai1803/mdreadtime/internal/feeds"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on localhost.

Routes:
  POST   /api/estimate           Estimate markdown content
  POST   /api/estimate/url       Estimate a web page
  POST   /api/feeds/estimate     Estimate the articles of a feed
  GET    /api/estimates          List saved estimates
  GET    /api/estimates/totals   Aggregate saved estimates
  GET    /api/estimates/{id}     Get a saved estimate
  DELETE /api/estimates/{id}     Delete a saved estimate
  GET    /api/health             Health check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		router := api.NewRouter(store, feeds.NewFetcher(), cfg)

		// Localhost only.
		addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("starting server", "addr", "http://"+addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
