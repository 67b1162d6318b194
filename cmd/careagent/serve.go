package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/go-careagent/internal/httpapi"
)

func newServeCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.close()

			opts := httpapi.Options{
				Dispatcher: a.dispatcher,
				Agents:     a.agents,
				Sessions:   a.sessions,
				Logger:     log,
			}
			if a.usage != nil {
				opts.Usage = a.usage
			}
			if a.history != nil {
				opts.History = a.history
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.Port),
				Handler:           httpapi.NewServer(opts).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", srv.Addr, "provider", a.cfg.Provider)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
