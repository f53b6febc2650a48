package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/logger"
	"github.com/nanogit/nanogit/internal/config"
	"github.com/nanogit/nanogit/internal/preferences"
	"github.com/nanogit/nanogit/internal/repocache"
	"github.com/nanogit/nanogit/internal/session"
	"github.com/nanogit/nanogit/internal/watcher"
	"github.com/nanogit/nanogit/pkg/badgerfx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module assembles the application without running it, so a presentation
// layer can add its own modules and invoke the session service.
func Module() fx.Option {
	return fx.Options(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		validator.Module,
		fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
		//
		// APP MODULES
		config.Module(),
		preferences.Module(),
		//
		// BUSINESS MODULES
		repocache.Module(),
		watcher.Module(),
		session.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("🚀 nanogit starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("🛑 nanogit shutting down gracefully")
					return nil
				},
			})
		}),
	)
}

func Run(opts ...fx.Option) {
	fx.New(
		Module(),
		fx.Options(opts...),
	).Run()
}
