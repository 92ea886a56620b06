package planar

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/network"
)

// Patch implements geometry.Engine. Two-vertex fragments sharing a Source
// are projected on a common axis and their overlapping ranges dissolved;
// everything else is appended unchanged. The result is numbered 1..N.
func (e *Engine) Patch(ctx context.Context, a, b *network.Network) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "planar: patch")
	}
	name := ""
	switch {
	case a != nil:
		name = a.Name
	case b != nil:
		name = b.Name
	}

	type group struct {
		source int
		frags  []network.Feature
	}
	var (
		order  []*group
		groups = make(map[int]*group)
		loose  []network.Feature
	)
	for _, n := range []*network.Network{a, b} {
		if n == nil {
			continue
		}
		for _, f := range n.Features {
			if f.Source <= 0 || f.Line.NumCoords() != 2 {
				loose = append(loose, f)
				continue
			}
			g, ok := groups[f.Source]
			if !ok {
				g = &group{source: f.Source}
				groups[f.Source] = g
				order = append(order, g)
			}
			g.frags = append(g.frags, f)
		}
	}

	out := network.New(name)
	for _, g := range order {
		for _, f := range e.dissolve(g.frags) {
			f.Source = g.source
			out.Features = append(out.Features, f)
		}
	}
	out.Features = append(out.Features, loose...)
	out.Renumber()
	return out, nil
}

// dissolve merges collinear fragments along the axis of the longest one.
// Fragments off that axis are kept as they are.
func (e *Engine) dissolve(frags []network.Feature) []network.Feature {
	axis := frags[0]
	for _, f := range frags[1:] {
		if f.Line.Length() > axis.Line.Length() {
			axis = f
		}
	}
	origin := coordPt(axis.Start())
	dir := coordPt(axis.End()).sub(origin)
	length := dir.norm()
	if length == 0 {
		return frags
	}
	u := dir.scale(1 / length)
	normal := pt{-u.y, u.x}

	var (
		ivs  []interval
		kept []network.Feature
	)
	for _, f := range frags {
		s, t := coordPt(f.Start()).sub(origin), coordPt(f.End()).sub(origin)
		if math.Abs(normal.dot(s)) > e.tolerance || math.Abs(normal.dot(t)) > e.tolerance {
			kept = append(kept, f)
			continue
		}
		lo, hi := s.dot(u), t.dot(u)
		if lo > hi {
			lo, hi = hi, lo
		}
		ivs = append(ivs, interval{lo: lo, hi: hi})
	}

	sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })
	var merged []interval
	for _, iv := range ivs {
		if n := len(merged); n > 0 && iv.lo <= merged[n-1].hi+e.tolerance {
			merged[n-1].hi = max(merged[n-1].hi, iv.hi)
			continue
		}
		merged = append(merged, iv)
	}

	out := make([]network.Feature, 0, len(merged)+len(kept))
	for _, iv := range merged {
		p, q := origin.add(u.scale(iv.lo)), origin.add(u.scale(iv.hi))
		out = append(out, network.Feature{Line: network.NewLine(p.x, p.y, q.x, q.y)})
	}
	return append(out, kept...)
}
