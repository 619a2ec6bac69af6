package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"voltaudit/internal/bootstrap/config"
	"voltaudit/internal/bootstrap/database"
	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/infrastructure/bus"
	cacheinfra "voltaudit/internal/infrastructure/cache"
	"voltaudit/internal/infrastructure/notify"
	sqliterepo "voltaudit/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "voltaudit/internal/infrastructure/persistence/sqlite/uow"
	"voltaudit/internal/ports"
	usecaseaudit "voltaudit/internal/usecase/audit"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAuditRepository,
			fx.As(new(ports.AuditRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			notify.NewLogSink,
			fx.As(new(ports.NotificationSink)),
		),
	),
	fx.Provide(provideHub),
	fx.Provide(func(h *bus.Hub) ports.EventBus { return h }),
	fx.Provide(provideTracker),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideHub(lc fx.Lifecycle) *bus.Hub {
	hub := bus.NewHub()

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			hub.Close()
			return nil
		},
	})

	return hub
}

func provideTracker(cfg config.Config) *bus.PresenceTracker {
	return bus.NewPresenceTracker(cfg.Bus.EffectivePresenceTimeout())
}

func provideService(
	repo ports.AuditRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	eventBus ports.EventBus,
	sink ports.NotificationSink,
	cfg config.Config,
) *usecaseaudit.Service {
	return usecaseaudit.NewService(repo, uow, cache, eventBus, sink, ports.AuditThresholds{
		ReminderDays:   cfg.Workflow.ReminderDays,
		EscalationDays: cfg.Workflow.EscalationDays,
	})
}
