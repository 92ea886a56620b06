package layer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/netconflate/internal/network"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, newTestSQLiteStore(t))
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLiteStore_KeepsFeatureOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n := network.New("ordered",
		network.Feature{Cat: 30, Line: network.NewLine(0, 0, 1, 0)},
		network.Feature{Cat: 10, Line: network.NewLine(1, 0, 2, 0)},
		network.Feature{Cat: 20, Line: network.NewLine(2, 0, 3, 0)},
	)
	require.NoError(t, st.Put(ctx, n))

	got, err := st.Get(ctx, "ordered")
	require.NoError(t, err)
	var cats []int
	for c := range got.Cats() {
		cats = append(cats, c)
	}
	assert.Equal(t, []int{30, 10, 20}, cats)
}

func TestSQLiteStore_UpdatedAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, sampleLayer("roads")))

	infos, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].UpdatedAt.IsZero())
}
