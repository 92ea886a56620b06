// Package planar is a pure-Go geometry.Engine for projected (planar)
// coordinates. Buffers are unions of convex parts, so overlays reduce to
// per-segment convex clipping.
//
// An Engine holds no mutable state and is safe for concurrent use.
package planar

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

const (
	defaultArcSegments = 16
	defaultTolerance   = 1e-9
)

// Engine implements geometry.Engine.
type Engine struct {
	snap        float64
	arcSegments int
	tolerance   float64
}

var _ geometry.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithSnapTolerance snaps node coordinates to a grid of the given size when
// computing degrees.
func WithSnapTolerance(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.snap = t
		}
	}
}

// WithArcSegments sets the number of chords used per half circle of a round cap.
func WithArcSegments(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.arcSegments = n
		}
	}
}

// WithTolerance sets the distance under which points are considered coincident.
func WithTolerance(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.tolerance = t
		}
	}
}

// New creates a planar engine.
func New(opts ...Option) *Engine {
	e := &Engine{arcSegments: defaultArcSegments, tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Split implements geometry.Engine.
func (e *Engine) Split(ctx context.Context, n *network.Network) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: split")
	}
	out := network.New(n.Name)
	for _, f := range n.Features {
		for i := 0; i+1 < f.Line.NumCoords(); i++ {
			a, b := f.Line.Coord(i), f.Line.Coord(i+1)
			if a.X() == b.X() && a.Y() == b.Y() {
				continue
			}
			out.Features = append(out.Features, network.Feature{
				Cat:    len(out.Features) + 1,
				Source: f.Cat,
				Line:   network.NewLine(a.X(), a.Y(), b.X(), b.Y()),
			})
		}
	}
	return out, nil
}

// Extract implements geometry.Engine.
func (e *Engine) Extract(_ context.Context, n *network.Network, cats ...int) (*network.Network, error) {
	want := make(map[int]bool, len(cats))
	for _, c := range cats {
		want[c] = true
	}
	out := network.New(n.Name)
	for _, f := range n.Features {
		if want[f.Cat] {
			out.Features = append(out.Features, f)
		}
	}
	return out, nil
}

// Lengths implements geometry.Engine.
func (e *Engine) Lengths(_ context.Context, n *network.Network) ([]float64, error) {
	out := make([]float64, n.Len())
	for i, f := range n.Features {
		out[i] = f.Line.Length()
	}
	return out, nil
}

// Degree implements geometry.Engine.
func (e *Engine) Degree(ctx context.Context, n *network.Network) (*geometry.DegreeMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: degree")
	}
	d := geometry.NewDegreeMap()
	for _, f := range n.Features {
		s, t := f.Start(), f.End()
		d.Add(geometry.NodeKey(s.X(), s.Y(), e.snap))
		d.Add(geometry.NodeKey(t.X(), t.Y(), e.snap))
	}
	return d, nil
}

// SelectOverlap implements geometry.Engine. A feature overlaps a node when
// the node lies on the line within the snap or coincidence tolerance.
func (e *Engine) SelectOverlap(ctx context.Context, n *network.Network, nodes []geometry.Node) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: select overlap")
	}
	tol := math.Max(e.tolerance, e.snap)
	out := network.New(n.Name)
	for _, f := range n.Features {
		b := f.Line.Bounds()
		for _, node := range nodes {
			if node.X < b.Min(0)-tol || node.X > b.Max(0)+tol || node.Y < b.Min(1)-tol || node.Y > b.Max(1)+tol {
				continue
			}
			if lineDistance(f.Line, pt{node.X, node.Y}) <= tol {
				out.Features = append(out.Features, f)
				break
			}
		}
	}
	return out, nil
}

// Simplify implements geometry.Engine.
func (e *Engine) Simplify(ctx context.Context, n *network.Network, threshold float64) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: simplify")
	}
	if threshold < 0 {
		return nil, eris.Errorf("planar: simplify threshold must not be negative, got %v", threshold)
	}
	s := simplify.DouglasPeucker(threshold)
	out := network.New(n.Name)
	for _, f := range n.Features {
		ls := make(orb.LineString, 0, f.Line.NumCoords())
		for i := 0; i < f.Line.NumCoords(); i++ {
			c := f.Line.Coord(i)
			ls = append(ls, orb.Point{c.X(), c.Y()})
		}
		simplified, _ := s.Simplify(ls.Clone()).(orb.LineString)
		if len(simplified) < 2 {
			simplified = orb.LineString{ls[0], ls[len(ls)-1]}
		}
		flat := make([]float64, 0, len(simplified)*2)
		for _, p := range simplified {
			flat = append(flat, p[0], p[1])
		}
		out.Features = append(out.Features, network.Feature{
			Cat:    f.Cat,
			Source: f.Source,
			Line:   geom.NewLineStringFlat(geom.XY, flat),
		})
	}
	return out, nil
}

type pt struct {
	x, y float64
}

func coordPt(c geom.Coord) pt {
	return pt{c.X(), c.Y()}
}

func (p pt) sub(q pt) pt        { return pt{p.x - q.x, p.y - q.y} }
func (p pt) add(q pt) pt        { return pt{p.x + q.x, p.y + q.y} }
func (p pt) scale(k float64) pt { return pt{p.x * k, p.y * k} }
func (p pt) dot(q pt) float64   { return p.x*q.x + p.y*q.y }
func (p pt) norm() float64      { return math.Hypot(p.x, p.y) }

// lerp returns a + t(b-a), exact at both ends.
func lerp(a, b pt, t float64) pt {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return a.add(b.sub(a).scale(t))
}

func segmentDistance(a, b, p pt) float64 {
	d := b.sub(a)
	l2 := d.dot(d)
	if l2 == 0 {
		return p.sub(a).norm()
	}
	t := p.sub(a).dot(d) / l2
	return p.sub(lerp(a, b, t)).norm()
}

func lineDistance(ls *geom.LineString, p pt) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < ls.NumCoords(); i++ {
		if d := segmentDistance(coordPt(ls.Coord(i)), coordPt(ls.Coord(i+1)), p); d < best {
			best = d
		}
	}
	return best
}

func polyline(pts []pt) *geom.LineString {
	flat := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		flat = append(flat, p.x, p.y)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
