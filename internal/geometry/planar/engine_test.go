package planar

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

func line(cat int, xy ...float64) network.Feature {
	return network.Feature{Cat: cat, Line: network.NewLine(xy...)}
}

func totalLength(n *network.Network) float64 {
	var sum float64
	for _, f := range n.Features {
		sum += f.Line.Length()
	}
	return sum
}

func ringArea(flat []float64) float64 {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return sum / 2
}

func TestSplit(t *testing.T) {
	e := New()
	n := network.New("roads",
		line(5, 0, 0, 1, 0, 1, 0, 2, 0),
		line(9, 0, 0, 0, 3),
	)

	split, err := e.Split(context.Background(), n)
	require.NoError(t, err)

	require.Equal(t, 3, split.Len())
	assert.Equal(t, []int{1, 2, 3}, slices.Collect(split.Cats()))
	assert.Equal(t, 5, split.Features[0].Source)
	assert.Equal(t, 5, split.Features[1].Source)
	assert.Equal(t, 9, split.Features[2].Source)
	for _, f := range split.Features {
		assert.Equal(t, 2, f.Line.NumCoords())
	}
	assert.InDelta(t, totalLength(n), totalLength(split), 1e-12)
}

func TestSplit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Split(ctx, network.New("x"))
	require.Error(t, err)
}

func TestExtract(t *testing.T) {
	e := New()
	n := network.New("roads", line(1, 0, 0, 1, 0), line(2, 1, 0, 2, 0), line(3, 2, 0, 3, 0))

	got, err := e.Extract(context.Background(), n, 3, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, slices.Collect(got.Cats()))
}

func TestLengths(t *testing.T) {
	e := New()
	n := network.New("roads", line(1, 0, 0, 3, 4), line(2, 0, 0, 0, 1, 1, 1))

	got, err := e.Lengths(context.Background(), n)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2}, got, 1e-12)
}

func TestDegree(t *testing.T) {
	e := New()
	n := network.New("roads",
		line(1, 0, 0, 1, 0),
		line(2, 1, 0, 2, 0),
		line(3, 1, 0, 1, 1),
	)

	d, err := e.Degree(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, 3, d.Degree(geometry.Node{X: 1, Y: 0}))
	assert.Equal(t, 1, d.Degree(geometry.Node{X: 0, Y: 0}))

	low, ok := d.Min()
	require.True(t, ok)
	assert.Equal(t, 1, low)
	assert.Len(t, d.AtDegree(1), 3)
}

func TestDegree_SnapTolerance(t *testing.T) {
	e := New(WithSnapTolerance(1e-3))
	n := network.New("roads",
		line(1, 0, 0, 1, 0),
		line(2, 1.0001, 0, 2, 0),
	)

	d, err := e.Degree(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}

func TestSelectOverlap(t *testing.T) {
	e := New()
	n := network.New("roads",
		line(1, 0, 0, 1, 0),
		line(2, 1, 0, 2, 0),
		line(3, 5, 5, 6, 6),
	)

	got, err := e.SelectOverlap(context.Background(), n, []geometry.Node{{X: 0, Y: 0}, {X: 6, Y: 6}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, slices.Collect(got.Cats()))

	none, err := e.SelectOverlap(context.Background(), n, nil)
	require.NoError(t, err)
	assert.True(t, none.Empty())
}

func TestSimplify(t *testing.T) {
	e := New()
	n := network.New("roads", line(4, 0, 0, 1, 0.01, 2, 0))

	coarse, err := e.Simplify(context.Background(), n, 0.1)
	require.NoError(t, err)
	require.Equal(t, 1, coarse.Len())
	assert.Equal(t, 2, coarse.Features[0].Line.NumCoords())
	assert.Equal(t, 4, coarse.Features[0].Cat)

	fine, err := e.Simplify(context.Background(), n, 0.001)
	require.NoError(t, err)
	assert.Equal(t, 3, fine.Features[0].Line.NumCoords())

	// Input is not modified.
	assert.Equal(t, 3, n.Features[0].Line.NumCoords())

	_, err = e.Simplify(context.Background(), n, -1)
	require.Error(t, err)
}

func TestBuffer_InvalidDistance(t *testing.T) {
	e := New()
	n := network.New("ref", line(1, 0, 0, 1, 0))

	_, err := e.Buffer(context.Background(), n, 0, geometry.Symmetric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	_, err = e.Buffer(context.Background(), n, 1, geometry.Side(9))
	require.Error(t, err)
}

func TestBuffer_Polygons(t *testing.T) {
	e := New(WithArcSegments(8))
	n := network.New("ref", line(1, 0, 0, 10, 0, 10, 10))

	r, err := e.Buffer(context.Background(), n, 1, geometry.Symmetric)
	require.NoError(t, err)
	require.False(t, r.IsEmpty())

	polys := r.Polygons()
	require.Len(t, polys, 2)
	ring := polys[0].LinearRing(0)
	assert.Equal(t, 2*(8+1)+1, ring.NumCoords())
	assert.Equal(t, ring.Coord(0), ring.Coord(ring.NumCoords()-1))
	// Rectangle plus a regular 16-gon of radius 1.
	assert.InDelta(t, 20+8*math.Sin(math.Pi/8), ringArea(ring.FlatCoords()), 1e-9)
}

func TestOverlay_SymmetricBuffer(t *testing.T) {
	e := New()
	ctx := context.Background()
	ref := network.New("ref", line(1, 0, 0, 100, 0))
	r, err := e.Buffer(ctx, ref, 1, geometry.Symmetric)
	require.NoError(t, err)

	tests := []struct {
		name     string
		cand     network.Feature
		features int
		length   float64
	}{
		{"parallel inside", line(7, 0, 0.5, 100, 0.5), 1, 100},
		{"collinear longer", line(7, -10, 0, 110, 0), 1, 102},
		{"perpendicular far", line(7, 50, 10, 50, 20), 0, 0},
		{"crossing", line(7, 50, -5, 50, 5), 1, 2},
		{"outside parallel", line(7, 0, 1.5, 100, 1.5), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Overlay(ctx, network.New("cand", tt.cand), r, geometry.OpAnd)
			require.NoError(t, err)
			assert.Equal(t, tt.features, out.Len())
			assert.InDelta(t, tt.length, totalLength(out), 1e-6)
			for _, f := range out.Features {
				assert.Equal(t, 7, f.Source)
			}
		})
	}
}

func TestOverlay_Not(t *testing.T) {
	e := New()
	ctx := context.Background()
	r, err := e.Buffer(ctx, network.New("ref", line(1, 0, 0, 100, 0)), 1, geometry.Symmetric)
	require.NoError(t, err)

	out, err := e.Overlay(ctx, network.New("cand", line(3, -10, 0, 110, 0)), r, geometry.OpNot)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, []int{1, 2}, slices.Collect(out.Cats()))
	assert.InDelta(t, 9, out.Features[0].Line.Length(), 1e-6)
	assert.InDelta(t, 9, out.Features[1].Line.Length(), 1e-6)
}

func TestOverlay_KeepsContiguousPieces(t *testing.T) {
	e := New()
	ctx := context.Background()
	r, err := e.Buffer(ctx, network.New("ref", line(1, 0, 0, 100, 0)), 1, geometry.Symmetric)
	require.NoError(t, err)

	cand := network.New("cand",
		line(1, 0, 0.5, 50, 0.5, 100, 0.5),
		line(2, 0, 0.5, 50, 0.5, 50, 30, 60, 0.2, 90, 0.2),
	)
	out, err := e.Overlay(ctx, cand, r, geometry.OpAnd)
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, 1, out.Features[0].Source)
	assert.Equal(t, 3, out.Features[0].Line.NumCoords())
	assert.InDelta(t, 100, out.Features[0].Line.Length(), 1e-9)
	assert.Equal(t, 2, out.Features[1].Source)
	assert.Equal(t, 2, out.Features[2].Source)
}

func TestOverlay_LeftSideBuffer(t *testing.T) {
	e := New()
	ctx := context.Background()
	r, err := e.Buffer(ctx, network.New("ref", line(1, 0, 0, 10, 0)), 1, geometry.LeftSide)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cand   network.Feature
		length float64
	}{
		{"left", line(1, 0, 0.5, 10, 0.5), 10},
		{"right", line(1, 0, -0.5, 10, -0.5), 0},
		{"collinear", line(1, 2, 0, 8, 0), 6},
		{"past flat end", line(1, 10.5, 0.5, 12, 0.5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Overlay(ctx, network.New("cand", tt.cand), r, geometry.OpAnd)
			require.NoError(t, err)
			assert.InDelta(t, tt.length, totalLength(out), 1e-6)
		})
	}
}

func TestOverlay_EmptyRegion(t *testing.T) {
	e := New()
	cand := network.New("cand", line(1, 0, 0, 10, 0))

	out, err := e.Overlay(context.Background(), cand, &Region{}, geometry.OpAnd)
	require.NoError(t, err)
	assert.True(t, out.Empty())

	out, err = e.Overlay(context.Background(), cand, &Region{}, geometry.OpNot)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.InDelta(t, 10, out.Features[0].Line.Length(), 1e-12)
}

type foreignRegion struct{}

func (foreignRegion) IsEmpty() bool             { return false }
func (foreignRegion) Polygons() []*geom.Polygon { return nil }

func TestOverlay_ForeignRegion(t *testing.T) {
	_, err := New().Overlay(context.Background(), network.New("c"), foreignRegion{}, geometry.OpAnd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign region")
}

func TestRectangle(t *testing.T) {
	e := New()
	ctx := context.Background()

	r, err := e.Rectangle(ctx, geom.NewBounds(geom.XY).Set(0, 0, 10, 10))
	require.NoError(t, err)

	out, err := e.Overlay(ctx, network.New("c", line(1, -5, 5, 15, 5)), r, geometry.OpAnd)
	require.NoError(t, err)
	assert.InDelta(t, 10, totalLength(out), 1e-6)

	_, err = e.Rectangle(ctx, geom.NewBounds(geom.XY).Set(0, 0, 0, 10))
	require.Error(t, err)
}

func TestPatch_DissolvesSameSource(t *testing.T) {
	e := New()
	a := network.New("patch",
		network.Feature{Cat: 1, Source: 1, Line: network.NewLine(0, 0, 2, 0)},
	)
	b := network.New("frag",
		network.Feature{Cat: 1, Source: 1, Line: network.NewLine(1, 0, 3, 0)},
		network.Feature{Cat: 2, Source: 2, Line: network.NewLine(5, 5, 6, 6)},
	)

	got, err := e.Patch(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "patch", got.Name)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []int{1, 2}, slices.Collect(got.Cats()))
	assert.InDelta(t, 3, got.Features[0].Line.Length(), 1e-12)
	assert.Equal(t, 1, got.Features[0].Source)
	assert.Equal(t, 2, got.Features[1].Source)
}

func TestPatch_SameFragmentTwice(t *testing.T) {
	e := New()
	frag := network.New("frag", network.Feature{Cat: 1, Source: 4, Line: network.NewLine(0, 0, 5, 0)})

	acc, err := e.Patch(context.Background(), nil, frag)
	require.NoError(t, err)
	acc, err = e.Patch(context.Background(), acc, frag)
	require.NoError(t, err)

	require.Equal(t, 1, acc.Len())
	assert.InDelta(t, 5, totalLength(acc), 1e-12)
}

func TestPatch_KeepsLooseFeatures(t *testing.T) {
	e := New()
	a := network.New("a", line(1, 0, 0, 1, 0, 2, 0))
	b := network.New("b", line(1, 0, 0, 1, 0))

	got, err := e.Patch(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestClipConvex(t *testing.T) {
	square := []pt{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	iv, ok := clipConvex(pt{-1, 0.5}, pt{2, 0.5}, square, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0/3, iv.lo, 1e-12)
	assert.InDelta(t, 2.0/3, iv.hi, 1e-12)

	_, ok = clipConvex(pt{-1, 2}, pt{2, 2}, square, 0)
	assert.False(t, ok)
}

func TestComplement(t *testing.T) {
	got := complement([]interval{{0.2, 0.4}, {0.6, 1}}, 1e-9)
	assert.Equal(t, []interval{{0, 0.2}, {0.4, 0.6}}, got)
	assert.Equal(t, []interval{{0, 1}}, complement(nil, 1e-9))
}
