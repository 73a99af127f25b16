package member

import (
	"context"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors the Postgres semantics: Create is atomic with respect to the
// uniqueness check on email.
type MemStore struct {
	mu      sync.Mutex
	members map[string]Member
}

func NewMemStore() *MemStore {
	return &MemStore{members: make(map[string]Member)}
}

func (s *MemStore) FindByEmail(ctx context.Context, email string) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMember(m), nil
}

func (s *MemStore) Create(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.Email]; ok {
		return ErrAlreadyExists
	}
	s.members[m.Email] = *cloneMember(*m)
	return nil
}

func (s *MemStore) Update(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.Email]; !ok {
		return ErrNotFound
	}
	s.members[m.Email] = *cloneMember(*m)
	return nil
}

// Len reports the number of stored members.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

func cloneMember(m Member) *Member {
	roles := make([]string, len(m.Roles))
	copy(roles, m.Roles)
	m.Roles = roles
	return &m
}
