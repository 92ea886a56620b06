package layer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/network"
)

type memoryEntry struct {
	layer     *network.Network
	updatedAt time.Time
}

// MemoryStore keeps layers in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	layers map[string]memoryEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{layers: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.layers[name]
	return ok, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*network.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.layers[name]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: get %s", name)
	}
	return e.layer.Clone(name), nil
}

func (s *MemoryStore) Put(_ context.Context, n *network.Network) error {
	if err := checkPut(n); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[n.Name] = memoryEntry{layer: n.Clone(n.Name), updatedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[name]; !ok {
		return eris.Wrapf(ErrNotFound, "memory: delete %s", name)
	}
	delete(s.layers, name)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Info, 0, len(s.layers))
	for name, e := range s.layers {
		out = append(out, Info{Name: name, Features: e.layer.Len(), UpdatedAt: e.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
