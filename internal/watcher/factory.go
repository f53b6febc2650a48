package watcher

import (
	"context"

	"go.uber.org/zap"
)

type Factory struct {
	config Config

	logger *zap.Logger
}

func NewFactory(config Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,

		logger: logger,
	}
}

func (f *Factory) Enabled() bool {
	return f.config.Enabled
}

// Watch starts a watcher for the given working tree. It fails with
// ErrDisabled when watching is turned off.
func (f *Factory) Watch(ctx context.Context, workdir, gitDir string, target Refresher) (*Watcher, error) {
	if !f.config.Enabled {
		return nil, ErrDisabled
	}

	w, err := New(workdir, gitDir, target, f.config.Debounce, f.logger)
	if err != nil {
		return nil, err
	}

	if err = w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}

	return w, nil
}
