package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
	"voltaudit/internal/infrastructure/bus/natsrelay"
	"voltaudit/internal/scheduler"
	"voltaudit/internal/transport/ws"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit synchronization server",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		cfg := deps.App.Config

		go func() {
			if err := deps.Tracker.Run(ctx, deps.Hub); err != nil {
				logging.Error(ctx, "presence tracker stopped", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if cfg.Bus.NATSURL != "" {
			relay, err := natsrelay.New(cfg.Bus.NATSURL, uuid.NewString(), deps.Hub)
			if err != nil {
				return errs.Wrap(err, "connect nats relay")
			}
			if err := relay.Start(ctx); err != nil {
				return errs.Wrap(err, "start nats relay")
			}
		}

		sweeper, err := scheduler.New(deps.Service, deps.Repo, cfg.Workflow.SweepSpec)
		if err != nil {
			return errs.Wrap(err, "build sweep scheduler")
		}
		if err := sweeper.Start(ctx); err != nil {
			return errs.Wrap(err, "start sweep scheduler")
		}
		defer sweeper.Stop()

		if cfg.Workflow.StagesFile != "" {
			if err := deps.Service.WatchStages(ctx, cfg.Workflow.StagesFile); err != nil {
				// A missing stages file is not fatal; the built-in path stays.
				logging.Warn(ctx, "stage overlay watch unavailable", slog.Any("err", errs.Loggable(err)))
			}
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           ws.NewServer(deps.Hub, deps.Tracker).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "server listening", slog.String("addr", cfg.Server.Addr))
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
		case <-ctx.Done():
			logging.Info(ctx, "shutdown requested")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}

		logging.Info(ctx, "server stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
