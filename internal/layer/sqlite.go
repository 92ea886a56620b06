package layer

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/netconflate/internal/network"
)

// SQLiteStore implements Store using modernc.org/sqlite. Geometries are
// stored as WKB blobs.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS layers (
	name       TEXT PRIMARY KEY,
	features   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS layer_features (
	layer  TEXT NOT NULL,
	seq    INTEGER NOT NULL,
	cat    INTEGER NOT NULL,
	source INTEGER NOT NULL DEFAULT 0,
	geom   BLOB NOT NULL,
	PRIMARY KEY (layer, seq)
);

CREATE INDEX IF NOT EXISTS idx_layer_features_layer ON layer_features(layer);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM layers WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: exists %s", name)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*network.Network, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get %s", name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cat, source, geom FROM layer_features WHERE layer = ? ORDER BY seq`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", name)
	}
	defer rows.Close()

	out := network.New(name)
	for rows.Next() {
		var (
			f    network.Feature
			blob []byte
		)
		if err := rows.Scan(&f.Cat, &f.Source, &blob); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan feature of %s", name)
		}
		if f.Line, err = DecodeWKB(blob); err != nil {
			return nil, eris.Wrapf(err, "sqlite: feature %d of %s", f.Cat, name)
		}
		out.Features = append(out.Features, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get iterate")
}

func (s *SQLiteStore) Put(ctx context.Context, n *network.Network) error {
	if err := checkPut(n); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin put")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM layer_features WHERE layer = ?`, n.Name); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", n.Name)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO layers (name, features, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET features = excluded.features, updated_at = excluded.updated_at`,
		n.Name, n.Len(), time.Now().UTC(),
	); err != nil {
		return eris.Wrapf(err, "sqlite: upsert layer %s", n.Name)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO layer_features (layer, seq, cat, source, geom) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare feature insert")
	}
	defer stmt.Close()

	for i, f := range n.Features {
		blob, err := EncodeWKB(f.Line)
		if err != nil {
			return eris.Wrapf(err, "sqlite: feature %d of %s", f.Cat, n.Name)
		}
		if _, err := stmt.ExecContext(ctx, n.Name, i, f.Cat, f.Source, blob); err != nil {
			return eris.Wrapf(err, "sqlite: insert feature %d of %s", f.Cat, n.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit put")
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete layer %s", name)
	}
	if err := checkRowsAffected(res, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM layer_features WHERE layer = ?`, name); err != nil {
		return eris.Wrapf(err, "sqlite: delete features of %s", name)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete")
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, features, updated_at FROM layers ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list layers")
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Features, &info.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan layer")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list layers iterate")
}

func checkRowsAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "layer %s", name)
	}
	return nil
}
