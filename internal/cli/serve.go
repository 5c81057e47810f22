package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/api"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/infra/observability"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the EcoScore and rewards API for the configured user.

Ledger notifications stream at /api/rewards/notifications/live and, when
metrics are enabled, Prometheus metrics at /metrics. SIGINT or SIGTERM
drains in-flight requests and saves state before exiting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if cmd.Flags().Changed("host") {
				rt.cfg.API.Host = host
			}
			if cmd.Flags().Changed("port") {
				rt.cfg.API.Port = port
			}
			return serve(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func serve(ctx context.Context, rt *runtime) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := api.NewNotificationHub()
	engineOpts := []rewards.Option{rewards.WithNotifier(hub)}

	var metrics *observability.Metrics
	if rt.cfg.Metrics.Enabled {
		metrics = observability.New(rt.cfg.Metrics.Runtime)
		engineOpts = append(engineOpts, rewards.WithObserver(metrics))
	}
	mgr := rt.manager(session.WithEngineOptions(engineOpts...))

	// Open eagerly so a broken store fails at startup, not on first request.
	if _, err := mgr.Open(ctx, rt.cfg.User); err != nil {
		return err
	}

	srv := api.NewServer(mgr, rt.cfg.User)
	srv.SetLogger(logging.ComponentLogger(rt.logger, "api"))
	srv.SetNotificationHub(hub)
	srv.SetAllowedOrigins(rt.cfg.API.AllowedOrigins)
	if metrics != nil {
		srv.EnableMetrics(metrics)
	}

	// No WriteTimeout: it would cut the live notification stream.
	httpSrv := &http.Server{
		Addr:              rt.cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info().Str("addr", httpSrv.Addr).Str("user", rt.cfg.User).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", httpSrv.Addr, err)
		}
	case <-ctx.Done():
	}
	rt.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(httpSrv.Shutdown(shutdownCtx), mgr.Flush(shutdownCtx))
}
