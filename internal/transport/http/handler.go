package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certledger/internal/registry"
	"certledger/pkg/digest"
	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the lifecycle service. It parses and
// validates transport input, delegates, and maps domain errors to statuses;
// authorization itself lives in the service.
type Handler struct {
	svc    *registry.Service
	logger *slog.Logger
}

func NewHandler(svc *registry.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity missing"))
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	recipient, err := id.ParseIdentity(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	digest, err := id.ParseDigest(req.Digest)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	certID, err := h.svc.IssueCertificate(r.Context(), caller, recipient, req.ContentRef, digest, req.Metadata)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issueResponse{ID: certID})
}

func (h *Handler) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity missing"))
		return
	}

	certID, err := id.ParseCertID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	digest, err := id.ParseDigest(req.Digest)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.UpdateCertificate(r.Context(), caller, certID, req.ContentRef, digest); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOK())
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity missing"))
		return
	}

	certID, err := id.ParseCertID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.RevokeCertificate(r.Context(), caller, certID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOK())
}

func (h *Handler) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.svc.Get(r.Context(), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(record))
}

// handleVerifyContent recomputes a document digest and compares it with the
// on-registry digest. Verification is a read, so it needs no token, but the
// response carries the certificate status because a matching digest on a
// revoked certificate proves nothing.
func (h *Handler) handleVerifyContent(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req verifyContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "content must be base64-encoded"))
		return
	}
	alg := req.Algorithm
	if alg == "" {
		alg = digest.AlgSHA256
	}

	record, err := h.svc.Get(r.Context(), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	match, err := digest.Verify(alg, content, record.Digest)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verifyContentResponse{
		ID:        record.ID,
		Algorithm: alg,
		Match:     match,
		Status:    string(record.Status),
	})
}

// handleListCertificates serves the identity-indexed projections. Exactly one
// of issuer= or recipient= must be provided.
func (h *Handler) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	issuerParam := r.URL.Query().Get("issuer")
	recipientParam := r.URL.Query().Get("recipient")

	var (
		ids []id.CertID
		err error
	)
	switch {
	case issuerParam != "" && recipientParam == "":
		var issuer id.Identity
		if issuer, err = id.ParseIdentity(issuerParam); err == nil {
			ids, err = h.svc.CertificatesOfIssuer(r.Context(), issuer)
		}
	case recipientParam != "" && issuerParam == "":
		var recipient id.Identity
		if recipient, err = id.ParseIdentity(recipientParam); err == nil {
			ids, err = h.svc.CertificatesOfRecipient(r.Context(), recipient)
		}
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "exactly one of issuer or recipient is required")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certificateListResponse{IDs: ids})
}

func (h *Handler) handleAddIssuer(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity missing"))
		return
	}

	var req addIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	identity, err := id.ParseIdentity(req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.AddIssuer(r.Context(), caller, identity); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOK())
}

func (h *Handler) handleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity missing"))
		return
	}

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.RemoveIssuer(r.Context(), caller, identity); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOK())
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	isAdmin, err := h.svc.IsAdmin(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	isIssuer, err := h.svc.IsIssuer(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rolesResponse{
		Identity: identity.String(),
		Admin:    isAdmin,
		Issuer:   isIssuer,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Total(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.svc.AuditLen(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		TotalCertificates: total,
		AuditEntries:      entries,
	})
}

func (h *Handler) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "after must be a sequence number"))
			return
		}
		after = parsed
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000"))
			return
		}
		limit = parsed
	}

	entries, err := h.svc.AuditEntries(r.Context(), after, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auditEntriesResponse{Entries: entries})
}

func toOK() map[string]string {
	return map[string]string{"status": "ok"}
}
