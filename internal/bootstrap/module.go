package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"fieldtriage/internal/bootstrap/config"
	"fieldtriage/internal/bootstrap/database"
	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	cacheinfra "fieldtriage/internal/infrastructure/cache"
	"fieldtriage/internal/infrastructure/geo"
	sqlitestore "fieldtriage/internal/infrastructure/persistence/sqlite/store"
	sqliteuow "fieldtriage/internal/infrastructure/persistence/sqlite/uow"
	"fieldtriage/internal/ports"
	"fieldtriage/internal/usecase/triage"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideProtocol),
	fx.Provide(
		fx.Annotate(
			sqlitestore.NewCaseStore,
			fx.As(new(ports.CaseSnapshotStore)),
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
	fx.Provide(provideLocationProvider),
	fx.Provide(provideEngine),
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

func provideProtocol(cfg config.Config) (domaintriage.Protocol, error) {
	return triage.LoadProtocolProfile(cfg.Triage.ProfileFile)
}

func provideLocationProvider(cfg config.Config) ports.LocationProvider {
	return geo.NewStaticProvider(cfg.Location)
}

func provideEngine(
	store ports.CaseSnapshotStore,
	uow ports.UnitOfWork,
	cache ports.Cache,
	locator ports.LocationProvider,
	protocol domaintriage.Protocol,
	cfg config.Config,
) *triage.Service {
	return triage.NewService(store, uow, cache, locator, protocol, triage.Options{
		LocationTimeout: cfg.Location.Timeout,
	})
}
