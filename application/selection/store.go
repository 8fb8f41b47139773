// Package selection tracks the explicitly selected entity-id set and
// interprets click semantics. It has no knowledge of the graph; consumers
// combine it with services.ComputeHighlighted to obtain the full
// presentation state (selected / highlighted / neither) per entity.
package selection

import (
	"sync"

	"tripgraph/domain/core/valueobjects"
)

// Store holds the current selection for one session
type Store struct {
	mu       sync.RWMutex
	selected map[valueobjects.EntityID]bool
}

// NewStore creates an empty selection store
func NewStore() *Store {
	return &Store{selected: map[valueobjects.EntityID]bool{}}
}

// Selected returns a copy of the selected id set
func (s *Store) Selected() map[valueobjects.EntityID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[valueobjects.EntityID]bool, len(s.selected))
	for id := range s.selected {
		out[id] = true
	}
	return out
}

// IsSelected checks whether the id is currently selected
func (s *Store) IsSelected(id valueobjects.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// Len returns the selection size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Click interprets a plain or modifier click on an entity.
//
// Plain click: when the selection is exactly {id}, clear it (toggle-off);
// otherwise replace the selection with {id}.
// Modifier click (ctrl/cmd): toggle id in or out, leaving the rest of the
// selection untouched.
func (s *Store) Click(id valueobjects.EntityID, modifier bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if modifier {
		if s.selected[id] {
			delete(s.selected, id)
		} else {
			s.selected[id] = true
		}
		return
	}

	if len(s.selected) == 1 && s.selected[id] {
		s.selected = map[valueobjects.EntityID]bool{}
		return
	}
	s.selected = map[valueobjects.EntityID]bool{id: true}
}

// ClickGroup interprets a group click, e.g. selecting all experiences on
// a date. With modifier the ids are unioned into the selection; without,
// they replace it. An empty candidate list is a no-op.
func (s *Store) ClickGroup(ids []valueobjects.EntityID, modifier bool) {
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !modifier {
		s.selected = make(map[valueobjects.EntityID]bool, len(ids))
	}
	for _, id := range ids {
		s.selected[id] = true
	}
}

// Clear empties the selection
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[valueobjects.EntityID]bool{}
}
