package storage

import (
	"fmt"

	"github.com/bradykim7/cooknet/pkg/config"
	"go.uber.org/zap"
)

// Open returns the Store selected by cfg.StoreDriver
func Open(cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		store, err := NewSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMongo:
		store, err := NewMongoDB(cfg.MongoDBURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
