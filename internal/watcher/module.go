package watcher

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"watcher",
		logger.WithNamedLogger("watcher"),
		fx.Provide(NewFactory),
	)
}
