package main

import (
	"flag"

	"github.com/ghaggin/estate/internal/auth"
	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/logging"
	"github.com/ghaggin/estate/internal/metrics"
	"github.com/ghaggin/estate/internal/middleware"
	"github.com/ghaggin/estate/internal/repository"
	"github.com/ghaggin/estate/internal/site"
	"github.com/ghaggin/estate/internal/template"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	var configPath = flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	app := fx.New(
		options(config.Path(*configPath)),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}

func options(path config.Path) fx.Option {
	return fx.Options(
		fx.Supply(path),
		fx.Provide(
			config.New,
			logging.New,
			metrics.New,
			auth.NewCredentialStore,
			middleware.NewSessionManager,
			middleware.NewFlashStore,
			middleware.NewFlash,
			template.NewRenderer,
		),
		repository.Module,
		// bootstrap must finish before the server accepts logins
		fx.Invoke(auth.RegisterBootstrap, middleware.RegisterFlashCleanup),
		site.Module,
	)
}
