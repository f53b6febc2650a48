package preferences

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"preferences",
		logger.WithNamedLogger("preferences"),
		fx.Provide(NewStore),
	)
}
