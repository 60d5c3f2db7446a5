package models

import (
	id "certledger/pkg/domain"
)

// Status is the lifecycle state of a certificate record.
// Active → Revoked is the only transition; Revoked is terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Certificate is the on-registry record of one issued credential.
//
// Issuer, Recipient and Metadata are immutable after issuance. ContentRef and
// Digest change only together, via an update transition. RevokedAt is the
// sequence number of the revoking transition and is zero while Active.
type Certificate struct {
	ID         id.CertID
	Issuer     id.Identity
	Recipient  id.Identity
	ContentRef string
	Digest     id.Digest
	Metadata   string
	Status     Status
	RevokedAt  uint64
}

// IsActive reports whether the record can still be updated or revoked.
func (c Certificate) IsActive() bool {
	return c.Status == StatusActive
}
