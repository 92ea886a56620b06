// Package layer persists named line layers and converts them to and from
// exchange formats (WKB, shapefile, GeoJSON).
package layer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/network"
)

// ErrNotFound is returned when a named layer does not exist.
var ErrNotFound = eris.New("layer: not found")

// Info summarizes a stored layer.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Features  int       `json:"features" yaml:"features"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store defines the persistence interface for line layers.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	// Get returns ErrNotFound for an unknown layer.
	Get(ctx context.Context, name string) (*network.Network, error)
	// Put creates or replaces the layer named n.Name.
	Put(ctx context.Context, n *network.Network) error
	// Delete returns ErrNotFound for an unknown layer.
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Info, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func checkPut(n *network.Network) error {
	if n == nil || n.Name == "" {
		return eris.New("layer: put: layer has no name")
	}
	return eris.Wrap(n.Validate(), "layer: put")
}
