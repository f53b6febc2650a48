package repocache

import (
	"go.uber.org/zap"
)

// Factory opens caches with the application-wide configuration.
type Factory struct {
	config  Config
	metrics *Metrics

	logger *zap.Logger
}

func NewFactory(config Config, metrics *Metrics, logger *zap.Logger) *Factory {
	return &Factory{
		config:  config,
		metrics: metrics,

		logger: logger,
	}
}

func (f *Factory) Open(path string) (*Cache, error) {
	return Open(
		path,
		WithConfig(f.config),
		WithMetrics(f.metrics),
		WithLogger(f.logger),
	)
}
