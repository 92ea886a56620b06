package layer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/network"
)

// Arena scopes transient layers to one unit of work. Layers put through an
// arena get a unique name prefix and are removed together by Release.
type Arena struct {
	store  Store
	prefix string
	names  []string
}

// NewArena creates an arena over a scratch store.
func NewArena(store Store) *Arena {
	return &Arena{
		store:  store,
		prefix: "tmp_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
	}
}

// Name returns the scoped name for a tag.
func (a *Arena) Name(tag string) string {
	return a.prefix + "_" + tag
}

// Put stores a copy of n under the scoped name for tag and returns that copy.
func (a *Arena) Put(ctx context.Context, tag string, n *network.Network) (*network.Network, error) {
	scoped := n.Clone(a.Name(tag))
	if err := a.store.Put(ctx, scoped); err != nil {
		return nil, eris.Wrapf(err, "arena: put %s", tag)
	}
	a.names = append(a.names, scoped.Name)
	return scoped, nil
}

// Len returns the number of layers held.
func (a *Arena) Len() int {
	return len(a.names)
}

// Release removes every layer put through the arena. Layers already gone
// are ignored. Release is safe to call more than once.
func (a *Arena) Release(ctx context.Context) error {
	var first error
	for _, name := range a.names {
		if err := a.store.Delete(context.WithoutCancel(ctx), name); err != nil && !eris.Is(err, ErrNotFound) && first == nil {
			first = eris.Wrapf(err, "arena: release %s", name)
		}
	}
	a.names = nil
	return first
}
