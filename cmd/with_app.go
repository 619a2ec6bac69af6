package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"voltaudit/internal/bootstrap"
	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
	"voltaudit/internal/infrastructure/bus"
	"voltaudit/internal/ports"
	usecaseaudit "voltaudit/internal/usecase/audit"
)

// appDeps bundles everything a command may pull out of the container.
type appDeps struct {
	fx.In

	App     *bootstrap.App
	Service *usecaseaudit.Service
	Repo    ports.AuditRepository
	Hub     *bus.Hub
	Tracker *bus.PresenceTracker
}

func withApp(run func(cmd *cobra.Command, deps appDeps) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var deps appDeps
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&deps),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, deps); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
