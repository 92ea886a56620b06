package conflate

import (
	"context"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

// Length returns the total length of a layer as reported by the engine.
// A layer without features is 0 and the engine is not queried.
func Length(ctx context.Context, engine geometry.Engine, n *network.Network) (float64, error) {
	if n.Empty() {
		return 0, nil
	}
	lengths, err := engine.Lengths(ctx, n)
	if err != nil {
		return 0, eris.Wrapf(err, "conflate: length of %s", n.Name)
	}
	return floats.Sum(lengths), nil
}
