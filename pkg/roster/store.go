package roster

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound reports a member ID absent from the store.
var ErrNotFound = errors.New("member not found")

// Store is an in-memory roster collection safe for concurrent use. It backs
// the HTTP API; it is not a persistence layer and nothing is written to disk.
type Store struct {
	members  map[string]Member
	order    []string
	mu       sync.RWMutex
	revision uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{members: make(map[string]Member)}
}

// List returns members in insertion order.
func (s *Store) List() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Member, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// Add validates and stores a member, assigning an ID when absent.
func (s *Store) Add(m Member) (Member, error) {
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	s.members[m.ID] = m
	s.revision++
	return m, nil
}

// Get returns the member with the given ID.
func (s *Store) Get(id string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	return m, ok
}

// Update validates and replaces an existing member.
func (s *Store) Update(id string, m Member) (Member, error) {
	m.ID = id
	if err := m.Validate(); err != nil {
		return Member{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return Member{}, ErrNotFound
	}
	s.members[id] = m
	s.revision++
	return m, nil
}

// Delete removes a member.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return ErrNotFound
	}
	delete(s.members, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.revision++
	return nil
}

// Replace swaps the whole collection, assigning IDs where absent.
func (s *Store) Replace(members []Member) error {
	for _, m := range members {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = make(map[string]Member, len(members))
	s.order = s.order[:0]
	for _, m := range members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, exists := s.members[m.ID]; !exists {
			s.order = append(s.order, m.ID)
		}
		s.members[m.ID] = m
	}
	s.revision++
	return nil
}

// Revision increments on every mutation; callers use it to key caches of
// derived results.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
