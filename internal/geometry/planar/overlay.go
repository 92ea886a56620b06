package planar

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

// interval is a parameter range [lo, hi] along a segment, 0 <= lo <= hi <= 1.
type interval struct {
	lo, hi float64
}

// Overlay implements geometry.Engine.
func (e *Engine) Overlay(ctx context.Context, n *network.Network, r geometry.Region, op geometry.Operator) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: overlay")
	}
	region, ok := r.(*Region)
	if !ok && r != nil {
		return nil, eris.Errorf("planar: overlay: foreign region type %T", r)
	}
	if op != geometry.OpAnd && op != geometry.OpNot {
		return nil, eris.Errorf("planar: overlay: unsupported operator %d", op)
	}

	out := network.New(n.Name)
	for _, f := range n.Features {
		for _, piece := range e.clipLine(f, region, op) {
			out.Features = append(out.Features, network.Feature{
				Cat:    len(out.Features) + 1,
				Source: f.Cat,
				Line:   polyline(piece),
			})
		}
	}
	return out, nil
}

// clipLine returns the parts of a feature kept by op, merging pieces that
// continue across vertices.
func (e *Engine) clipLine(f network.Feature, r *Region, op geometry.Operator) [][]pt {
	var pieces [][]pt
	var cur []pt
	flush := func() {
		if cur != nil && pathLength(cur) > e.tolerance {
			pieces = append(pieces, cur)
		}
		cur = nil
	}

	for i := 0; i+1 < f.Line.NumCoords(); i++ {
		a, b := coordPt(f.Line.Coord(i)), coordPt(f.Line.Coord(i+1))
		length := b.sub(a).norm()
		if length == 0 {
			continue
		}
		eps := e.tolerance / length

		ivs := e.insideIntervals(a, b, r, eps)
		if op == geometry.OpNot {
			ivs = complement(ivs, eps)
		}

		for j, iv := range ivs {
			if j == 0 && cur != nil && iv.lo <= eps {
				cur = appendPt(cur, lerp(a, b, iv.hi))
				continue
			}
			flush()
			cur = []pt{lerp(a, b, iv.lo), lerp(a, b, iv.hi)}
		}
		if len(ivs) == 0 || ivs[len(ivs)-1].hi < 1-eps {
			flush()
		}
	}
	flush()
	return pieces
}

// insideIntervals returns the merged parameter ranges of segment a-b lying in r.
func (e *Engine) insideIntervals(a, b pt, r *Region, eps float64) []interval {
	if r.IsEmpty() {
		return nil
	}
	tol := e.tolerance
	minX, maxX := min(a.x, b.x), max(a.x, b.x)
	minY, maxY := min(a.y, b.y), max(a.y, b.y)

	var ivs []interval
	for _, c := range r.parts {
		if maxX < c.minX-tol || minX > c.maxX+tol || maxY < c.minY-tol || minY > c.maxY+tol {
			continue
		}
		if iv, ok := clipConvex(a, b, c.ring, tol); ok && iv.hi-iv.lo > eps {
			ivs = append(ivs, iv)
		}
	}
	return merge(ivs, eps)
}

// clipConvex clips segment a-b against a counter-clockwise convex ring grown
// by tol (Cyrus-Beck).
func clipConvex(a, b pt, ring []pt, tol float64) (interval, bool) {
	d := b.sub(a)
	tIn, tOut := 0.0, 1.0
	for i := range ring {
		q, next := ring[i], ring[(i+1)%len(ring)]
		edge := next.sub(q)
		el := edge.norm()
		if el == 0 {
			continue
		}
		// Outward normal of a counter-clockwise edge points to its right.
		normal := pt{edge.y / el, -edge.x / el}
		num := normal.dot(a.sub(q)) - tol
		den := normal.dot(d)
		if den == 0 {
			if num > 0 {
				return interval{}, false
			}
			continue
		}
		t := -num / den
		if den < 0 {
			tIn = max(tIn, t)
		} else {
			tOut = min(tOut, t)
		}
		if tIn > tOut {
			return interval{}, false
		}
	}
	return interval{lo: tIn, hi: tOut}, true
}

func merge(ivs []interval, eps float64) []interval {
	if len(ivs) < 2 {
		return ivs
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })
	out := []interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.lo <= last.hi+eps {
			last.hi = max(last.hi, iv.hi)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// complement returns [0,1] minus the merged intervals.
func complement(ivs []interval, eps float64) []interval {
	var out []interval
	cursor := 0.0
	for _, iv := range ivs {
		if iv.lo-cursor > eps {
			out = append(out, interval{lo: cursor, hi: iv.lo})
		}
		cursor = max(cursor, iv.hi)
	}
	if 1-cursor > eps {
		out = append(out, interval{lo: cursor, hi: 1})
	}
	return out
}

func appendPt(path []pt, p pt) []pt {
	if len(path) > 0 && path[len(path)-1] == p {
		return path
	}
	return append(path, p)
}

func pathLength(path []pt) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i].sub(path[i-1]).norm()
	}
	return total
}
