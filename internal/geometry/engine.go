// Package geometry defines the vector geometry provider consumed by the
// conflation core. Implementations live in subpackages (see planar).
package geometry

import (
	"context"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/netconflate/internal/network"
)

// Side selects the buffer shape.
type Side int

const (
	// Symmetric buffers both sides of a line, with round caps.
	Symmetric Side = iota
	// LeftSide buffers only the left of the line direction, with flat ends.
	LeftSide
)

func (s Side) String() string {
	switch s {
	case Symmetric:
		return "symmetric"
	case LeftSide:
		return "left"
	default:
		return "unknown"
	}
}

// Operator selects which part of a line layer an overlay keeps.
type Operator int

const (
	// OpAnd keeps the parts inside the region.
	OpAnd Operator = iota
	// OpNot keeps the parts outside the region.
	OpNot
)

// Region is an areal result of Buffer or Rectangle. It is only meaningful to
// the engine that produced it.
type Region interface {
	IsEmpty() bool
	// Polygons returns the region as polygons, for export and debugging.
	Polygons() []*geom.Polygon
}

// Engine is a vector geometry provider. All calls are synchronous and either
// fully succeed or fail.
type Engine interface {
	// Split breaks every feature into two-vertex segments numbered 1..N.
	// Each segment's Source is the category of the feature it came from.
	Split(ctx context.Context, n *network.Network) (*network.Network, error)

	// Buffer builds the region within distance of the layer's lines.
	Buffer(ctx context.Context, n *network.Network, distance float64, side Side) (Region, error)

	// Rectangle builds an axis-aligned region.
	Rectangle(ctx context.Context, bounds *geom.Bounds) (Region, error)

	// Overlay keeps the parts of n inside (OpAnd) or outside (OpNot) r.
	// Contiguous parts of one input feature stay a single output feature.
	// Output features are numbered 1..K; Source is the input category.
	Overlay(ctx context.Context, n *network.Network, r Region, op Operator) (*network.Network, error)

	// Degree computes node degrees over the feature end points of n.
	Degree(ctx context.Context, n *network.Network) (*DegreeMap, error)

	// SelectOverlap returns the features of n touching any of the nodes.
	SelectOverlap(ctx context.Context, n *network.Network, nodes []Node) (*network.Network, error)

	// Extract returns the features of n with the given categories, in layer order.
	Extract(ctx context.Context, n *network.Network, cats ...int) (*network.Network, error)

	// Simplify generalizes every feature with Douglas-Peucker at threshold.
	Simplify(ctx context.Context, n *network.Network, threshold float64) (*network.Network, error)

	// Lengths returns per-feature lengths in layer order.
	Lengths(ctx context.Context, n *network.Network) ([]float64, error)

	// Patch returns the union of two line layers. Overlapping collinear
	// fragments derived from the same source are merged.
	Patch(ctx context.Context, a, b *network.Network) (*network.Network, error)
}
