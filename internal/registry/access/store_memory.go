package access

import (
	"context"
	"sync"

	id "certledger/pkg/domain"
)

// InMemoryStore holds role state in an explicit, instantiable struct so
// multiple independent registries can coexist in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	admin   id.Identity
	issuers map[id.Identity]bool
}

func NewInMemoryStore(admin id.Identity) *InMemoryStore {
	return &InMemoryStore{
		admin:   admin,
		issuers: make(map[id.Identity]bool),
	}
}

func (s *InMemoryStore) Admin(_ context.Context) (id.Identity, error) {
	return s.admin, nil
}

func (s *InMemoryStore) IsAdmin(_ context.Context, identity id.Identity) (bool, error) {
	return identity == s.admin, nil
}

func (s *InMemoryStore) IsIssuer(_ context.Context, identity id.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issuers[identity], nil
}

func (s *InMemoryStore) Grant(_ context.Context, identity id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuers[identity] = true
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, identity id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.issuers, identity)
	return nil
}

func (s *InMemoryStore) Issuers(_ context.Context) ([]id.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Identity, 0, len(s.issuers))
	for issuer := range s.issuers {
		out = append(out, issuer)
	}
	return out, nil
}
