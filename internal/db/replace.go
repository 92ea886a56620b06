package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ReplaceConfig defines the parameters for a keyed bulk replace.
type ReplaceConfig struct {
	Table     string   // target table (e.g., "netconflate.layer_features")
	Columns   []string // columns being copied
	KeyColumn string   // rows matching Key in this column are replaced
	Key       any
}

// ReplaceRows swaps every row matching cfg.Key for rows in one transaction:
// 1. DELETE FROM table WHERE key = $1
// 2. COPY rows into the table
// An empty rows slice just deletes.
func ReplaceRows(ctx context.Context, pool Pool, cfg ReplaceConfig, rows [][]any) (int64, error) {
	if cfg.Table == "" {
		return 0, eris.New("db: replace: no table specified")
	}
	if cfg.KeyColumn == "" {
		return 0, eris.New("db: replace: no key column specified")
	}
	if len(rows) > 0 && len(cfg.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		identifier(cfg.Table).Sanitize(),
		pgx.Identifier{cfg.KeyColumn}.Sanitize(),
	)
	if _, err := tx.Exec(ctx, deleteSQL, cfg.Key); err != nil {
		return 0, eris.Wrapf(err, "db: replace: delete from %s", cfg.Table)
	}

	var n int64
	if id := identifier(cfg.Table); len(id) == 2 {
		n, err = CopyFromSchema(ctx, tx, id[0], id[1], cfg.Columns, rows)
	} else {
		n, err = CopyFrom(ctx, tx, cfg.Table, cfg.Columns, rows)
	}
	if err != nil {
		return 0, eris.Wrap(err, "db: replace")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

// identifier handles schema-qualified table names like "netconflate.layers".
func identifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}
	}
	return pgx.Identifier{table}
}
