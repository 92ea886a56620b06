package conflate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/netconflate/internal/geometry/planar"
	"github.com/sells-group/netconflate/internal/network"
)

func split(t *testing.T, n *network.Network) *network.Network {
	t.Helper()
	out, err := planar.New().Split(context.Background(), n)
	require.NoError(t, err)
	return out
}

func TestBranchPoints_Chain(t *testing.T) {
	ref := split(t, network.New("ref", network.Feature{Cat: 1, Line: network.NewLine(0, 0, 10, 0, 20, 0, 30, 0)}))

	got, err := BranchPoints(context.Background(), planar.New(), ref)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 3: true}, got)
}

func TestBranchPoints_Star(t *testing.T) {
	ref := network.New("ref",
		network.Feature{Cat: 1, Line: network.NewLine(0, 0, 10, 0)},
		network.Feature{Cat: 2, Line: network.NewLine(0, 0, 0, 10)},
		network.Feature{Cat: 3, Line: network.NewLine(0, 0, -10, 0)},
	)

	got, err := BranchPoints(context.Background(), planar.New(), ref)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, got)
}

func TestBranchPoints_Loop(t *testing.T) {
	// Every node of a closed ring has degree 2, so every segment qualifies.
	ref := split(t, network.New("ref", network.Feature{Cat: 1, Line: network.NewLine(0, 0, 10, 0, 10, 10, 0, 0)}))

	got, err := BranchPoints(context.Background(), planar.New(), ref)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestBranchPoints_SubsetAndDeterministic(t *testing.T) {
	ref := split(t, network.New("ref",
		network.Feature{Cat: 1, Line: network.NewLine(0, 0, 10, 0, 20, 0, 20, 10)},
		network.Feature{Cat: 2, Line: network.NewLine(10, 0, 10, -10, 15, -20)},
	))
	ids := make(map[int]bool)
	for c := range ref.Cats() {
		ids[c] = true
	}

	first, err := BranchPoints(context.Background(), planar.New(), ref)
	require.NoError(t, err)
	for c := range first {
		assert.True(t, ids[c], "category %d not in layer", c)
	}

	for range 5 {
		again, err := BranchPoints(context.Background(), planar.New(), ref)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBranchPoints_Empty(t *testing.T) {
	got, err := BranchPoints(context.Background(), planar.New(), network.New("ref"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
