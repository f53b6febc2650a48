package badgerfx

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// New opens the preference store described by config.
func New(config Config, badgerLogger *zapLogger, logger *zap.Logger) (*badger.DB, error) {
	if config.InMemory {
		logger.Info("opening in-memory store")
	} else {
		logger.Info("opening store", zap.String("dir", config.Dir))
	}

	db, err := badger.Open(config.options().WithLogger(badgerLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return db, nil
}
