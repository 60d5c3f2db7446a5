package store

import (
	"context"
	"sync"

	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

// InMemoryStore keeps records and indexes under one lock so readers never
// observe a record without its index entries.
type InMemoryStore struct {
	mu          sync.RWMutex
	records     map[id.CertID]models.Certificate
	byIssuer    map[id.Identity][]id.CertID
	byRecipient map[id.Identity][]id.CertID
	next        id.CertID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:     make(map[id.CertID]models.Certificate),
		byIssuer:    make(map[id.Identity][]id.CertID),
		byRecipient: make(map[id.Identity][]id.CertID),
	}
}

func (s *InMemoryStore) Allocate(_ context.Context, issuer, recipient id.Identity, contentRef string, digest id.Digest, metadata string) (id.CertID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	certID := s.next
	s.records[certID] = models.Certificate{
		ID:         certID,
		Issuer:     issuer,
		Recipient:  recipient,
		ContentRef: contentRef,
		Digest:     digest,
		Metadata:   metadata,
		Status:     models.StatusActive,
	}
	s.byIssuer[issuer] = append(s.byIssuer[issuer], certID)
	s.byRecipient[recipient] = append(s.byRecipient[recipient], certID)
	return certID, nil
}

func (s *InMemoryStore) Get(_ context.Context, certID id.CertID) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[certID]; ok {
		return record, nil
	}
	return models.Certificate{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, certID id.CertID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[certID]
	return ok, nil
}

func (s *InMemoryStore) SetContent(_ context.Context, certID id.CertID, contentRef string, digest id.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[certID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.ContentRef = contentRef
	record.Digest = digest
	s.records[certID] = record
	return nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, certID id.CertID, atSeq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[certID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Status = models.StatusRevoked
	record.RevokedAt = atSeq
	s.records[certID] = record
	return nil
}

func (s *InMemoryStore) ByIssuer(_ context.Context, issuer id.Identity) ([]id.CertID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.CertID{}, s.byIssuer[issuer]...), nil
}

func (s *InMemoryStore) ByRecipient(_ context.Context, recipient id.Identity) ([]id.CertID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.CertID{}, s.byRecipient[recipient]...), nil
}

func (s *InMemoryStore) Total(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.next), nil
}
