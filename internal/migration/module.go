package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/config"
)

// Module provides the migrator and, unless database.auto_migrate is off,
// brings the schema up to date before anything else starts.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(func(config *config.AppConfig) (*Migrator, error) {
			return NewMigrator(&config.Database)
		}),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	migrator *Migrator,
	config *config.AppConfig,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !config.Database.AutoMigrate {
				logger.Info("Automatic migration disabled")
				return nil
			}
			return autoMigrate(ctx, migrator, logger)
		},
		OnStop: func(ctx context.Context) error {
			return migrator.Close()
		},
	})
}

func autoMigrate(ctx context.Context, migrator *Migrator, logger *zap.Logger) error {
	current, err := migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	latest, err := migrator.LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest migration version: %w", err)
	}

	logger.Info("Database migration status",
		zap.Int64("current_version", current),
		zap.Int64("latest_version", latest))

	if current > latest {
		// Never roll back a schema written by a newer build.
		return fmt.Errorf("database schema version %d is ahead of this build (%d)", current, latest)
	}
	if current == latest {
		return nil
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	logger.Info("Database schema upgraded",
		zap.Int64("from_version", current),
		zap.Int64("to_version", latest),
		zap.Int("applied", applied))
	return nil
}
