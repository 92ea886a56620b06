package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/geometry/planar"
	"github.com/sells-group/netconflate/internal/layer"
)

// initStore opens the configured layer store and applies its migrations.
func initStore(ctx context.Context) (layer.Store, error) {
	var (
		st  layer.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "netconflate.db"
		}
		st, err = layer.NewSQLite(dsn)
	case "postgres":
		st, err = layer.NewPostgres(ctx, cfg.Store.DatabaseURL, &layer.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			SRID:     cfg.Store.SRID,
		})
	case "memory":
		st = layer.NewMemory()
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// newEngine builds the geometry engine from the conflate settings.
func newEngine() *planar.Engine {
	return planar.New(
		planar.WithSnapTolerance(cfg.Conflate.SnapTolerance),
		planar.WithArcSegments(cfg.Conflate.ArcSegments),
	)
}
