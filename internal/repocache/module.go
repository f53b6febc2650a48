package repocache

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"repocache",
		logger.WithNamedLogger("repocache"),
		fx.Provide(NewMetrics, fx.Private),
		fx.Provide(NewFactory),
	)
}
