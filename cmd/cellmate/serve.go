package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/spetersoncode/cellmate/config"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP with AG-UI event streams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, appOptions{metrics: true, history: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:        cfg.Server.Addr,
				Handler:     newServer(a.manager, a.log, cfg.Server.AllowOrigin, promhttp.Handler()),
				ReadTimeout: 10 * time.Second,
				// SSE needs no write timeout
				WriteTimeout: 0,
				IdleTimeout:  120 * time.Second,
			}

			go func() {
				<-ctx.Done()
				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.log.Error("shutdown error", "error", err)
				}
			}()

			a.log.Info("server starting",
				"addr", cfg.Server.Addr,
				"provider", cfg.DefaultProvider,
				"tools", a.tools.Len(),
				"skills", a.skills.Len(),
			)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
