package auth

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/config"
)

// NewModule wires the credential store, the lifecycle, the service and its
// HTTP adapters, and seeds the store on start. It is a plain option set so
// its start hook runs after the database and migration hooks.
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewRepository,
			NewMetrics,
			func(config *config.AppConfig, log *zap.Logger, repo Repository, metrics *Metrics) *Lifecycle {
				return NewLifecycle(repo, log.Named("lifecycle"), metrics, time.Now, config.Seed.DefaultExpiryDays)
			},
			func(config *config.AppConfig, log *zap.Logger, repo Repository, lifecycle *Lifecycle, metrics *Metrics) *Service {
				return NewService(&config.Auth, log, repo, lifecycle, metrics, time.Now)
			},
			NewHandler,
			NewAuthMiddleware,
		),
		fx.Invoke(registerSeed),
	)
}

func registerSeed(lifecycle fx.Lifecycle, svc *Service, config *config.AppConfig) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Seed(ctx, &config.Seed)
		},
	})
}
