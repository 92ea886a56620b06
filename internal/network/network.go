// Package network models named line layers: collections of categorized line features.
package network

import (
	"iter"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Feature is a single line feature of a layer.
type Feature struct {
	// Cat is the category id, unique within the layer.
	Cat int
	// Source is the category of the feature this one was derived from (0 = none).
	Source int
	Line   *geom.LineString
}

// Start returns the first vertex of the feature.
func (f Feature) Start() geom.Coord {
	return f.Line.Coord(0)
}

// End returns the last vertex of the feature.
func (f Feature) End() geom.Coord {
	return f.Line.Coord(f.Line.NumCoords() - 1)
}

// Network is a named line layer.
type Network struct {
	Name     string
	Features []Feature
}

// New creates a network with the given features.
func New(name string, features ...Feature) *Network {
	return &Network{Name: name, Features: features}
}

// Len returns the number of features.
func (n *Network) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Features)
}

// Empty reports whether the network has no features.
func (n *Network) Empty() bool {
	return n.Len() == 0
}

// Cats yields the category ids in layer order.
func (n *Network) Cats() iter.Seq[int] {
	return func(yield func(int) bool) {
		if n == nil {
			return
		}
		for _, f := range n.Features {
			if !yield(f.Cat) {
				return
			}
		}
	}
}

// Feature looks up a feature by category.
func (n *Network) Feature(cat int) (Feature, bool) {
	if n == nil {
		return Feature{}, false
	}
	for _, f := range n.Features {
		if f.Cat == cat {
			return f, true
		}
	}
	return Feature{}, false
}

// Clone returns a shallow copy under a new name. Line geometries are shared.
func (n *Network) Clone(name string) *Network {
	out := &Network{Name: name, Features: make([]Feature, len(n.Features))}
	copy(out.Features, n.Features)
	return out
}

// Validate checks the layer invariants: unique categories and at least two
// vertices per feature.
func (n *Network) Validate() error {
	seen := make(map[int]bool, len(n.Features))
	for _, f := range n.Features {
		if seen[f.Cat] {
			return eris.Errorf("network: %s: duplicate category %d", n.Name, f.Cat)
		}
		seen[f.Cat] = true
		if f.Line == nil || f.Line.NumCoords() < 2 {
			return eris.Errorf("network: %s: feature %d has fewer than 2 vertices", n.Name, f.Cat)
		}
	}
	return nil
}

// Renumber assigns categories 1..N in layer order, keeping Source untouched.
func (n *Network) Renumber() {
	for i := range n.Features {
		n.Features[i].Cat = i + 1
	}
}

// NewLine builds an XY line string from x, y pairs.
func NewLine(xy ...float64) *geom.LineString {
	flat := make([]float64, len(xy))
	copy(flat, xy)
	return geom.NewLineStringFlat(geom.XY, flat)
}

// FromCoords builds an XY line string from coordinates, dropping any Z/M ordinates.
func FromCoords(coords []geom.Coord) *geom.LineString {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
