package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
)

// Open builds the store selected by storage.driver.
func Open(cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "json":
		return NewJSONStore(cfg.Path, logger), nil
	case "postgres":
		return NewPostgresStore(&cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
