package session

import (
	"context"

	"github.com/go-core-fx/logger"
	"github.com/nanogit/nanogit/internal/preferences"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		logger.WithNamedLogger("session"),
		fx.Provide(func(store *preferences.Store) PreferenceStore { return store }, fx.Private),
		fx.Provide(NewService),
		fx.Invoke(func(svc *Service, lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return svc.Restore(ctx)
				},
				OnStop: func(ctx context.Context) error {
					return svc.Close(ctx)
				},
			})
		}),
	)
}
