package planar

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

// convex is a convex polygon with counter-clockwise vertices (ring not closed).
type convex struct {
	ring                   []pt
	minX, minY, maxX, maxY float64
}

func newConvex(ring []pt) convex {
	c := convex{ring: ring, minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for _, p := range ring {
		c.minX = math.Min(c.minX, p.x)
		c.minY = math.Min(c.minY, p.y)
		c.maxX = math.Max(c.maxX, p.x)
		c.maxY = math.Max(c.maxY, p.y)
	}
	return c
}

// Region is a union of convex parts. It implements geometry.Region.
type Region struct {
	parts []convex
}

var _ geometry.Region = (*Region)(nil)

// IsEmpty implements geometry.Region.
func (r *Region) IsEmpty() bool {
	return r == nil || len(r.parts) == 0
}

// Polygons implements geometry.Region. Parts are returned individually, not dissolved.
func (r *Region) Polygons() []*geom.Polygon {
	if r == nil {
		return nil
	}
	out := make([]*geom.Polygon, 0, len(r.parts))
	for _, c := range r.parts {
		flat := make([]float64, 0, (len(c.ring)+1)*2)
		for _, p := range c.ring {
			flat = append(flat, p.x, p.y)
		}
		flat = append(flat, c.ring[0].x, c.ring[0].y)
		out = append(out, geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}))
	}
	return out
}

// Buffer implements geometry.Engine. Each segment contributes one convex
// part: a stadium for Symmetric, a rectangle on the left for LeftSide.
func (e *Engine) Buffer(ctx context.Context, n *network.Network, distance float64, side geometry.Side) (geometry.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: buffer")
	}
	if distance <= 0 {
		return nil, eris.Errorf("planar: buffer distance must be positive, got %v", distance)
	}
	if side != geometry.Symmetric && side != geometry.LeftSide {
		return nil, eris.Errorf("planar: unsupported buffer side %d", side)
	}

	r := &Region{}
	for _, f := range n.Features {
		for i := 0; i+1 < f.Line.NumCoords(); i++ {
			a, b := coordPt(f.Line.Coord(i)), coordPt(f.Line.Coord(i+1))
			if a == b {
				continue
			}
			if side == geometry.Symmetric {
				r.parts = append(r.parts, newConvex(e.stadium(a, b, distance)))
			} else {
				r.parts = append(r.parts, newConvex(leftRectangle(a, b, distance)))
			}
		}
	}
	return r, nil
}

// Rectangle implements geometry.Engine.
func (e *Engine) Rectangle(_ context.Context, bounds *geom.Bounds) (geometry.Region, error) {
	if bounds == nil || bounds.IsEmpty() {
		return nil, eris.New("planar: empty rectangle bounds")
	}
	minX, minY, maxX, maxY := bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)
	if minX >= maxX || minY >= maxY {
		return nil, eris.Errorf("planar: degenerate rectangle %v,%v,%v,%v", minX, minY, maxX, maxY)
	}
	return &Region{parts: []convex{newConvex([]pt{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY},
	})}}, nil
}

// stadium returns the counter-clockwise outline of the symmetric buffer of
// segment a-b: two half circles of radius d joined by the offset sides.
func (e *Engine) stadium(a, b pt, d float64) []pt {
	theta := math.Atan2(b.y-a.y, b.x-a.x)
	k := e.arcSegments
	ring := make([]pt, 0, 2*(k+1))
	for j := 0; j <= k; j++ {
		phi := theta - math.Pi/2 + float64(j)*math.Pi/float64(k)
		ring = append(ring, pt{b.x + d*math.Cos(phi), b.y + d*math.Sin(phi)})
	}
	for j := 0; j <= k; j++ {
		phi := theta + math.Pi/2 + float64(j)*math.Pi/float64(k)
		ring = append(ring, pt{a.x + d*math.Cos(phi), a.y + d*math.Sin(phi)})
	}
	return ring
}

// leftRectangle returns the counter-clockwise rectangle of width d on the
// left of the direction a->b.
func leftRectangle(a, b pt, d float64) []pt {
	dir := b.sub(a)
	u := dir.scale(1 / dir.norm())
	offset := pt{-u.y, u.x}.scale(d)
	return []pt{a, b, b.add(offset), a.add(offset)}
}
