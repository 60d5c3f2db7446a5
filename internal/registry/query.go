package registry

import (
	"context"
	"errors"

	"certledger/internal/audit"
	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
)

// Read surface. Stateless projections over the record store, role store and
// audit trail; none mutate state, and all reflect the latest committed
// transition at call time.

func (s *Service) Get(ctx context.Context, certID id.CertID) (models.Certificate, error) {
	record, err := s.records.Get(ctx, certID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate does not exist")
	}
	if err != nil {
		return models.Certificate{}, s.internal("load record", err)
	}
	return record, nil
}

func (s *Service) Exists(ctx context.Context, certID id.CertID) (bool, error) {
	return s.records.Exists(ctx, certID)
}

// Total returns the highest assigned certificate id.
func (s *Service) Total(ctx context.Context) (uint64, error) {
	return s.records.Total(ctx)
}

func (s *Service) CertificatesOfIssuer(ctx context.Context, issuer id.Identity) ([]id.CertID, error) {
	return s.records.ByIssuer(ctx, issuer)
}

func (s *Service) CertificatesOfRecipient(ctx context.Context, recipient id.Identity) ([]id.CertID, error) {
	return s.records.ByRecipient(ctx, recipient)
}

func (s *Service) IsIssuer(ctx context.Context, identity id.Identity) (bool, error) {
	return s.access.IsIssuer(ctx, identity)
}

func (s *Service) IsAdmin(ctx context.Context, identity id.Identity) (bool, error) {
	return s.access.IsAdmin(ctx, identity)
}

// AuditEntries pages through the trail for external replay and verification.
func (s *Service) AuditEntries(ctx context.Context, after uint64, limit int) ([]audit.Entry, error) {
	return s.trail.EntriesAfter(ctx, after, limit)
}

func (s *Service) AuditLen(ctx context.Context) (int, error) {
	return s.trail.Len(ctx)
}
