package storage

import (
	"context"
	"fmt"

	"github.com/hungpv1995/postboard/internal/config"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverRedis:
		return DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	case config.DriverPostgres:
		pg := cfg.Postgres
		return OpenSQL(ctx, "postgres", PostgresDSN(pg.Host, pg.Port, pg.User, pg.Password, pg.Name, pg.SSLMode))
	case config.DriverSQLite:
		return OpenSQL(ctx, "sqlite", cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
