package database

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/gatehouse/internal/config"
)

// Result exposes both the manager, for health checks and shutdown, and the
// raw *gorm.DB the repositories are built on.
type Result struct {
	fx.Out

	Manager *Manager
	DB      *gorm.DB
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(provide),
		fx.Invoke(registerHooks),
	)
}

func provide(config *config.AppConfig, logger *zap.Logger) (Result, error) {
	manager, err := NewManager(&config.Database, logger)
	if err != nil {
		return Result{}, err
	}
	return Result{Manager: manager, DB: manager.DB()}, nil
}

func registerHooks(lifecycle fx.Lifecycle, manager *Manager, logger *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := manager.Ping(ctx); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			logger.Info("Database connection established",
				zap.String("host", manager.config.Host),
				zap.Int("port", manager.config.Port),
				zap.String("database", manager.config.Name))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing database connections")
			return manager.Close()
		},
	})
}
