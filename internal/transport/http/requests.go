package httpapi

import (
	"certledger/internal/audit"
	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
)

type issueRequest struct {
	Recipient  string `json:"recipient"`
	ContentRef string `json:"content_ref"`
	Digest     string `json:"digest"`
	Metadata   string `json:"metadata,omitempty"`
}

type updateContentRequest struct {
	ContentRef string `json:"content_ref"`
	Digest     string `json:"digest"`
}

type verifyContentRequest struct {
	// Content carries the document bytes, base64-encoded.
	Content   string `json:"content"`
	Algorithm string `json:"algorithm,omitempty"`
}

type verifyContentResponse struct {
	ID        id.CertID `json:"id"`
	Algorithm string    `json:"algorithm"`
	Match     bool      `json:"match"`
	Status    string    `json:"status"`
}

type addIssuerRequest struct {
	Identity string `json:"identity"`
}

type issueResponse struct {
	ID id.CertID `json:"id"`
}

type certificateResponse struct {
	ID         id.CertID `json:"id"`
	Issuer     string    `json:"issuer"`
	Recipient  string    `json:"recipient"`
	ContentRef string    `json:"content_ref"`
	Digest     string    `json:"digest"`
	Metadata   string    `json:"metadata,omitempty"`
	Status     string    `json:"status"`
	RevokedAt  uint64    `json:"revoked_at,omitempty"`
}

func toCertificateResponse(record models.Certificate) certificateResponse {
	return certificateResponse{
		ID:         record.ID,
		Issuer:     record.Issuer.String(),
		Recipient:  record.Recipient.String(),
		ContentRef: record.ContentRef,
		Digest:     record.Digest.String(),
		Metadata:   record.Metadata,
		Status:     string(record.Status),
		RevokedAt:  record.RevokedAt,
	}
}

type certificateListResponse struct {
	IDs []id.CertID `json:"ids"`
}

type statsResponse struct {
	TotalCertificates uint64 `json:"total_certificates"`
	AuditEntries      int    `json:"audit_entries"`
}

type rolesResponse struct {
	Identity string `json:"identity"`
	Admin    bool   `json:"admin"`
	Issuer   bool   `json:"issuer"`
}

type auditEntriesResponse struct {
	Entries []audit.Entry `json:"entries"`
}
