// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores deep copies of *game.Game keyed by ID; callers never share state with the store.
//   - Tracks the active slot per player separately from the game map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/seabattle/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex          // guards games and active
	games  map[string]*game.Game // keyed by Game.ID
	active map[string]string     // PlayerID → Game.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games:  make(map[string]*game.Game),
		active: make(map[string]string),
	}
}

// Save stores a copy of g. The copy is built before the lock is taken, so
// the update is all-or-nothing. Older versions than the stored one are dropped.
func (m *memory) Save(ctx context.Context, g *game.Game) error {
	cp := g.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.games[cp.ID]; ok && cur.Version > cp.Version {
		return nil
	}
	if cp.Status == game.StatusActive {
		// A slot left pointing at a finished game may be taken over.
		if m.holdsActive(cp.PlayerID, cp.ID) {
			return ErrActiveExists
		}
		m.active[cp.PlayerID] = cp.ID
	}
	m.games[cp.ID] = cp
	return nil
}

// holdsActive reports whether playerID's slot holds an active game other than except.
func (m *memory) holdsActive(playerID, except string) bool {
	id, ok := m.active[playerID]
	if !ok || id == except {
		return false
	}
	cur := m.games[id]
	return cur != nil && cur.Status == game.StatusActive
}

// Load returns a copy of the game in the player's active slot.
func (m *memory) Load(ctx context.Context, playerID string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

// DeleteActive clears the active slot; the game itself is kept as history.
func (m *memory) DeleteActive(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, playerID)
	return nil
}

// History returns copies of the player's games, newest first.
func (m *memory) History(ctx context.Context, playerID string, limit int) ([]*game.Game, error) {
	m.mu.RLock()
	out := make([]*game.Game, 0)
	for _, g := range m.games {
		if g.PlayerID == playerID {
			out = append(out, g.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reassign moves from's games and active slot to to.
func (m *memory) Reassign(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holdsActive(from, "") && m.holdsActive(to, "") {
		return ErrActiveExists
	}
	for _, g := range m.games {
		if g.PlayerID == from {
			g.PlayerID = to
		}
	}
	if id, ok := m.active[from]; ok {
		delete(m.active, from)
		if !m.holdsActive(to, "") {
			m.active[to] = id
		}
	}
	return nil
}
