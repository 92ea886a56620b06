package layer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/db"
	"github.com/sells-group/netconflate/internal/network"
)

// PostgresStore implements Store using pgxpool. Geometries are stored as
// EWKB in bytea columns so they can be cast to PostGIS types in SQL.
type PostgresStore struct {
	pool    db.Pool
	srid    int
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
	SRID     int   `yaml:"srid" mapstructure:"srid"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	srid := 0
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
		srid = poolCfg.SRID
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := db.Retry(ctx, db.DefaultRetryConfig(), "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, srid: srid, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS netconflate;

CREATE TABLE IF NOT EXISTS netconflate.layers (
	name       TEXT PRIMARY KEY,
	features   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS netconflate.layer_features (
	layer  TEXT NOT NULL,
	seq    INTEGER NOT NULL,
	cat    INTEGER NOT NULL,
	source INTEGER NOT NULL DEFAULT 0,
	geom   BYTEA NOT NULL,
	PRIMARY KEY (layer, seq)
);
`

var featureColumns = []string{"layer", "seq", "cat", "source", "geom"}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM netconflate.layers WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: exists %s", name)
	}
	return exists, nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*network.Network, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get %s", name)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT cat, source, geom FROM netconflate.layer_features WHERE layer = $1 ORDER BY seq`, name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s", name)
	}
	defer rows.Close()

	out := network.New(name)
	for rows.Next() {
		var (
			f    network.Feature
			blob []byte
		)
		if err := rows.Scan(&f.Cat, &f.Source, &blob); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan feature of %s", name)
		}
		if f.Line, err = DecodeEWKB(blob); err != nil {
			return nil, eris.Wrapf(err, "postgres: feature %d of %s", f.Cat, name)
		}
		out.Features = append(out.Features, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get iterate")
}

func (s *PostgresStore) Put(ctx context.Context, n *network.Network) error {
	if err := checkPut(n); err != nil {
		return err
	}

	rows := make([][]any, 0, n.Len())
	for i, f := range n.Features {
		blob, err := EncodeEWKB(f.Line, s.srid)
		if err != nil {
			return eris.Wrapf(err, "postgres: feature %d of %s", f.Cat, n.Name)
		}
		rows = append(rows, []any{n.Name, i, f.Cat, f.Source, blob})
	}

	cfg := db.ReplaceConfig{
		Table:     "netconflate.layer_features",
		Columns:   featureColumns,
		KeyColumn: "layer",
		Key:       n.Name,
	}
	err := db.Retry(ctx, db.DefaultRetryConfig(), "replace layer features", func(ctx context.Context) error {
		_, err := db.ReplaceRows(ctx, s.pool, cfg, rows)
		return err
	})
	if err != nil {
		return eris.Wrapf(err, "postgres: put %s", n.Name)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO netconflate.layers (name, features, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET features = EXCLUDED.features, updated_at = now()`,
		n.Name, n.Len(),
	)
	return eris.Wrapf(err, "postgres: upsert layer %s", n.Name)
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM netconflate.layers WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete layer %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete %s", name)
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM netconflate.layer_features WHERE layer = $1`, name)
	return eris.Wrapf(err, "postgres: delete features of %s", name)
}

func (s *PostgresStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, features, updated_at FROM netconflate.layers ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list layers")
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Features, &info.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan layer")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list layers iterate")
}
