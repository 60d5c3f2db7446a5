package audit

import (
	"time"

	id "certledger/pkg/domain"
)

// Kind identifies the transition an audit entry records.
type Kind string

const (
	KindCertificateIssued  Kind = "certificate_issued"
	KindCertificateUpdated Kind = "certificate_updated"
	KindCertificateRevoked Kind = "certificate_revoked"
	KindIssuerAdded        Kind = "issuer_added"
	KindIssuerRemoved      Kind = "issuer_removed"
)

// Entry is one immutable record of a committed transition. Entries are
// append-only and ordered by Seq, the position the commitment substrate
// assigned to the transition. Replaying entries from an empty state must
// reconstruct the full registry deterministically, so every field a
// transition changed is carried here.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Certificate transitions.
	CertID     id.CertID   `json:"cert_id,omitempty"`
	Issuer     id.Identity `json:"issuer,omitempty"`
	Recipient  id.Identity `json:"recipient,omitempty"`
	ContentRef string      `json:"content_ref,omitempty"`
	Digest     string      `json:"digest,omitempty"`
	Metadata   string      `json:"metadata,omitempty"`

	// Issuer-set transitions. Actor is the administrator; Identity is the
	// issuer added or removed.
	Actor    id.Identity `json:"actor,omitempty"`
	Identity id.Identity `json:"identity,omitempty"`
}
