package store

import (
	"context"

	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
)

// RecordStore owns certificate records and the identity indexes derived from
// them. It is a pure data holder: the lifecycle service performs all
// validation before calling the mutating methods, so Allocate, SetContent and
// MarkRevoked assume their preconditions hold.
type RecordStore interface {
	// Allocate assigns the next sequential id (starting at 1), inserts the
	// record as Active, and appends the id to both identity indexes.
	Allocate(ctx context.Context, issuer, recipient id.Identity, contentRef string, digest id.Digest, metadata string) (id.CertID, error)

	// Get returns the record, or sentinel.ErrNotFound.
	Get(ctx context.Context, certID id.CertID) (models.Certificate, error)

	Exists(ctx context.Context, certID id.CertID) (bool, error)

	// SetContent overwrites contentRef and digest in place. Caller
	// guarantees the record exists and is Active.
	SetContent(ctx context.Context, certID id.CertID, contentRef string, digest id.Digest) error

	// MarkRevoked sets status=Revoked and records the committing sequence
	// number. Caller guarantees the record is currently Active.
	MarkRevoked(ctx context.Context, certID id.CertID, atSeq uint64) error

	// ByIssuer and ByRecipient return index sequences verbatim: issuance
	// order, stable, possibly empty.
	ByIssuer(ctx context.Context, issuer id.Identity) ([]id.CertID, error)
	ByRecipient(ctx context.Context, recipient id.Identity) ([]id.CertID, error)

	// Total returns the highest assigned id.
	Total(ctx context.Context) (uint64, error)
}
