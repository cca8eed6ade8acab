package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/api"
	"github.com/elskow/gatehouse/internal/auth"
	"github.com/elskow/gatehouse/internal/config"
	"github.com/elskow/gatehouse/internal/database"
	"github.com/elskow/gatehouse/internal/migration"
	"github.com/elskow/gatehouse/internal/server"
)

// Module combines all application modules. Start hooks run in the order
// listed: database, migrations, auth seeding, then the listeners.
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Metrics
		fx.Provide(
			func() prometheus.Registerer { return prometheus.DefaultRegisterer },
			func() prometheus.Gatherer { return prometheus.DefaultGatherer },
		),

		database.Module(),
		migration.Module(),
		auth.NewModule(),

		// HTTP routing
		fx.Provide(newRouter),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	return server.NewLogger(server.Environment())
}

func newRouter(
	config *config.AppConfig,
	handler *auth.Handler,
	middleware *auth.AuthMiddleware,
	manager *database.Manager,
	gatherer prometheus.Gatherer,
) http.Handler {
	return api.NewRouter(api.RouterOptions{
		Handler:        handler,
		Middleware:     middleware,
		Ready:          manager,
		Gatherer:       gatherer,
		AllowedOrigins: config.HTTP.AllowedOrigins,
		RequestTimeout: config.Server.RequestTimeout,
	})
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
