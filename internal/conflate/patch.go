package conflate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

const patchName = "patch"

// Patch is the running union of accepted candidate fragments. The zero
// value is a patch that was never created.
type Patch struct {
	layer *network.Network
}

// Empty reports whether no fragment was ever accepted.
func (p Patch) Empty() bool {
	return p.layer == nil
}

// Layer returns the accumulated fragments, nil while Empty.
func (p Patch) Layer() *network.Network {
	return p.layer
}

// Add returns the patch extended with frags. Adding nothing returns p.
func (p Patch) Add(ctx context.Context, engine geometry.Engine, frags *network.Network) (Patch, error) {
	if frags.Empty() {
		return p, nil
	}
	merged, err := engine.Patch(ctx, p.layer, frags)
	if err != nil {
		return p, eris.Wrap(err, "conflate: patch")
	}
	merged.Name = patchName
	return Patch{layer: merged}, nil
}
