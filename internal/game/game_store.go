package game

import (
	"sync"

	"github.com/google/uuid"
)

// Table holds the single session the server runs. A finished session is
// replaced by a fresh one built by the factory.
type Table struct {
	mu      sync.Mutex
	current *CatanGame
	factory func() *CatanGame
}

// NewTable creates a table and its first session.
func NewTable(factory func() *CatanGame) *Table {
	return &Table{
		current: factory(),
		factory: factory,
	}
}

// Current returns the session new connections should join.
func (t *Table) Current() *CatanGame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Replace swaps in a new session if old is still current and returns the
// session now in place.
func (t *Table) Replace(old uuid.UUID) *CatanGame {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.current.ID == old {
		t.current = t.factory()
	}
	return t.current
}

// GetGame returns the current session if it has the given id.
func (t *Table) GetGame(id uuid.UUID) (*CatanGame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.ID == id {
		return t.current, true
	}
	return nil, false
}
