package conflate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

// BranchPoints returns the categories of the features touching a node of
// minimum degree. Those segments are buffered on both sides.
func BranchPoints(ctx context.Context, engine geometry.Engine, n *network.Network) (map[int]bool, error) {
	out := make(map[int]bool)
	if n.Empty() {
		return out, nil
	}

	degrees, err := engine.Degree(ctx, n)
	if err != nil {
		return nil, eris.Wrap(err, "conflate: degree")
	}
	low, ok := degrees.Min()
	if !ok {
		return out, nil
	}

	touching, err := engine.SelectOverlap(ctx, n, degrees.AtDegree(low))
	if err != nil {
		return nil, eris.Wrap(err, "conflate: select branch segments")
	}
	for cat := range touching.Cats() {
		out[cat] = true
	}
	return out, nil
}
