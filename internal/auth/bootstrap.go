package auth

import (
	"context"

	"github.com/ghaggin/estate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RegisterBootstrap should be invoked by fx. Failures are logged and do not
// stop the process.
func RegisterBootstrap(lc fx.Lifecycle, store *CredentialStore, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Bootstrap.Enabled {
				return nil
			}

			created, err := store.Bootstrap(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password)
			if err != nil {
				log.Error("error creating administrator account", zap.Error(err))
				return nil
			}

			if created {
				log.Info("default administrator account created", zap.String("username", cfg.Bootstrap.Username))
				if cfg.DefaultAdminPassword() {
					log.Warn("default administrator password is in use, set ADMIN_PASSWORD")
				}
			}
			return nil
		},
	})
}
