// Package history keeps the bounded undo/redo timeline of pattern states and
// persists it to sqlite.
package history

import (
	"sync"

	"quilt/internal/quilt"
)

// DefaultCapacity is the number of states retained before the oldest is
// evicted.
const DefaultCapacity = 20

// Snapshot is a Store's content, oldest state first.
type Snapshot struct {
	States []quilt.State `json:"states"`
	Cursor int           `json:"cursor"`
}

// Store is a fixed-capacity ring of states plus a cursor. Undo and redo only
// move the cursor; pushing after an undo discards the redo branch.
type Store struct {
	mu       sync.Mutex
	ring     []quilt.State
	head     int
	length   int
	cursor   int
	capacity int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		ring:     make([]quilt.State, capacity),
		cursor:   -1,
		capacity: capacity,
	}
}

// Push appends state after the cursor. When the store is full the oldest
// state is evicted and the cursor stays put, which leaves it on the new
// state.
func (s *Store) Push(state quilt.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.truncateLocked(s.cursor + 1)

	if s.length == s.capacity {
		s.ring[s.head] = state.Clone()
		s.head = (s.head + 1) % s.capacity
		return
	}

	s.ring[s.slot(s.length)] = state.Clone()
	s.length++
	s.cursor++
}

// Undo moves the cursor back and returns the state it lands on.
func (s *Store) Undo() (quilt.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor <= 0 {
		return quilt.State{}, false
	}
	s.cursor--
	return s.ring[s.slot(s.cursor)].Clone(), true
}

// Redo moves the cursor forward and returns the state it lands on.
func (s *Store) Redo() (quilt.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= s.length-1 {
		return quilt.State{}, false
	}
	s.cursor++
	return s.ring[s.slot(s.cursor)].Clone(), true
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < s.length-1
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.length
}

// Cursor is -1 while the store is empty.
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Current returns the state under the cursor.
func (s *Store) Current() (quilt.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 {
		return quilt.State{}, false
	}
	return s.ring[s.slot(s.cursor)].Clone(), true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]quilt.State, s.length)
	for i := range states {
		states[i] = s.ring[s.slot(i)].Clone()
	}
	return Snapshot{States: states, Cursor: s.cursor}
}

// Restore replaces the content with snapshot. Only the newest Capacity
// states are kept and the cursor is clamped onto a retained state.
func (s *Store) Restore(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := snapshot.States
	cursor := snapshot.Cursor
	if overflow := len(states) - s.capacity; overflow > 0 {
		states = states[overflow:]
		cursor -= overflow
	}

	clear(s.ring)
	s.head = 0
	s.length = len(states)
	for i, state := range states {
		s.ring[i] = state.Clone()
	}

	switch {
	case s.length == 0:
		s.cursor = -1
	case cursor < 0:
		s.cursor = 0
	case cursor >= s.length:
		s.cursor = s.length - 1
	default:
		s.cursor = cursor
	}
}

func (s *Store) truncateLocked(length int) {
	for i := length; i < s.length; i++ {
		s.ring[s.slot(i)] = quilt.State{}
	}
	s.length = length
}

func (s *Store) slot(index int) int {
	return (s.head + index) % s.capacity
}
