package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/app"
	"github.com/elskow/gatehouse/internal/server"
)

func main() {
	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	fx.New(
		app.Module(),
		fx.StartTimeout(30*time.Second),
		fx.StopTimeout(15*time.Second),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	).Run()
}
