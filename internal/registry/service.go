package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"certledger/internal/audit"
	"certledger/internal/platform/metrics"
	"certledger/internal/registry/access"
	"certledger/internal/registry/models"
	"certledger/internal/registry/sequencer"
	"certledger/internal/registry/store"
	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
)

// EventPublisher tails committed transitions for external consumers
// (indexers, front ends). The audit trail remains authoritative; sinks are a
// best-effort fan-out.
type EventPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Service is the lifecycle state machine. Every mutation is validated and
// applied atomically under the sequencer's total order: authorization is
// checked against current role state at transition time, the record store and
// audit trail are written together, and a rejected transition leaves no trace.
type Service struct {
	access    access.Store
	records   store.RecordStore
	trail     audit.Store
	seq       sequencer.Sequencer
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher EventPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(
	accessStore access.Store,
	records store.RecordStore,
	trail audit.Store,
	seq sequencer.Sequencer,
	opts ...Option,
) (*Service, error) {
	if accessStore == nil {
		return nil, fmt.Errorf("access store is required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail is required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequencer is required")
	}

	s := &Service{
		access:  accessStore,
		records: records,
		trail:   trail,
		seq:     seq,
		logger:  slog.Default(),
		tracer:  otel.Tracer("certledger/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueCertificate records a new credential. The caller must currently be in
// the issuer set; the resulting record is owned by the caller permanently,
// independent of later issuer-set changes.
func (s *Service) IssueCertificate(ctx context.Context, caller, recipient id.Identity, contentRef string, digest id.Digest, metadata string) (id.CertID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.IssueCertificate")
	defer span.End()
	start := time.Now()

	if contentRef == "" {
		return 0, s.reject(dErrors.New(dErrors.CodeInvalidInput, "content reference cannot be empty"))
	}
	if digest == (id.Digest{}) {
		return 0, s.reject(dErrors.New(dErrors.CodeInvalidInput, "digest cannot be zero"))
	}

	var certID id.CertID
	_, err := s.seq.Commit(ctx, func(ctx context.Context, seq uint64) error {
		ok, err := s.access.IsIssuer(ctx, caller)
		if err != nil {
			return s.internal("check issuer", err)
		}
		if !ok {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized issuer")
		}

		certID, err = s.records.Allocate(ctx, caller, recipient, contentRef, digest, metadata)
		if err != nil {
			return s.internal("allocate record", err)
		}

		return s.append(ctx, audit.Entry{
			Seq:        seq,
			Kind:       audit.KindCertificateIssued,
			Timestamp:  time.Now().UTC(),
			CertID:     certID,
			Issuer:     caller,
			Recipient:  recipient,
			ContentRef: contentRef,
			Digest:     digest.String(),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return 0, s.reject(err)
	}

	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
		s.metrics.ObserveTransition(start)
	}
	s.logger.InfoContext(ctx, "certificate issued",
		"cert_id", certID, "issuer", caller, "recipient", recipient)
	return certID, nil
}

// UpdateCertificate replaces a record's content reference and digest. Only
// the original issuer may update, even if it has since been removed from the
// issuer set; a revoked record can never be updated.
func (s *Service) UpdateCertificate(ctx context.Context, caller id.Identity, certID id.CertID, contentRef string, digest id.Digest) error {
	ctx, span := s.tracer.Start(ctx, "registry.UpdateCertificate")
	defer span.End()
	start := time.Now()

	if contentRef == "" {
		return s.reject(dErrors.New(dErrors.CodeInvalidInput, "content reference cannot be empty"))
	}
	if digest == (id.Digest{}) {
		return s.reject(dErrors.New(dErrors.CodeInvalidInput, "digest cannot be zero"))
	}

	_, err := s.seq.Commit(ctx, func(ctx context.Context, seq uint64) error {
		record, err := s.ownedActive(ctx, caller, certID)
		if err != nil {
			return err
		}

		if err := s.records.SetContent(ctx, certID, contentRef, digest); err != nil {
			return s.internal("set content", err)
		}

		return s.append(ctx, audit.Entry{
			Seq:        seq,
			Kind:       audit.KindCertificateUpdated,
			Timestamp:  time.Now().UTC(),
			CertID:     certID,
			Issuer:     record.Issuer,
			ContentRef: contentRef,
			Digest:     digest.String(),
		})
	})
	if err != nil {
		return s.reject(err)
	}

	if s.metrics != nil {
		s.metrics.CertificatesUpdated.Inc()
		s.metrics.ObserveTransition(start)
	}
	s.logger.InfoContext(ctx, "certificate updated", "cert_id", certID, "issuer", caller)
	return nil
}

// RevokeCertificate terminally revokes a record. Revocation is monotonic:
// revoking twice is rejected with invalid_state, not silently accepted.
func (s *Service) RevokeCertificate(ctx context.Context, caller id.Identity, certID id.CertID) error {
	ctx, span := s.tracer.Start(ctx, "registry.RevokeCertificate")
	defer span.End()
	start := time.Now()

	_, err := s.seq.Commit(ctx, func(ctx context.Context, seq uint64) error {
		record, err := s.ownedActive(ctx, caller, certID)
		if err != nil {
			return err
		}

		if err := s.records.MarkRevoked(ctx, certID, seq); err != nil {
			return s.internal("mark revoked", err)
		}

		return s.append(ctx, audit.Entry{
			Seq:       seq,
			Kind:      audit.KindCertificateRevoked,
			Timestamp: time.Now().UTC(),
			CertID:    certID,
			Issuer:    record.Issuer,
		})
	})
	if err != nil {
		return s.reject(err)
	}

	if s.metrics != nil {
		s.metrics.CertificatesRevoked.Inc()
		s.metrics.ObserveTransition(start)
	}
	s.logger.InfoContext(ctx, "certificate revoked", "cert_id", certID, "issuer", caller)
	return nil
}

// ownedActive loads the record and runs the shared update/revoke checks:
// exists, caller is the original issuer, record still Active. Order matters:
// existence before ownership before state.
func (s *Service) ownedActive(ctx context.Context, caller id.Identity, certID id.CertID) (models.Certificate, error) {
	record, err := s.records.Get(ctx, certID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate does not exist")
	}
	if err != nil {
		return models.Certificate{}, s.internal("load record", err)
	}
	if record.Issuer != caller {
		return models.Certificate{}, dErrors.New(dErrors.CodeUnauthorized, "only the issuing identity may modify a certificate")
	}
	if !record.IsActive() {
		return models.Certificate{}, dErrors.New(dErrors.CodeInvalidState, "certificate is revoked")
	}
	return record, nil
}

// AddIssuer grants the issuer role. Administrator only. Adding a present
// issuer is a data-level no-op but still commits an audit entry: the event
// surface mirrors state-change notifications, not strict idempotence.
func (s *Service) AddIssuer(ctx context.Context, caller, identity id.Identity) error {
	return s.changeIssuerSet(ctx, caller, identity, audit.KindIssuerAdded, s.access.Grant)
}

// RemoveIssuer revokes the issuer role. Administrator only. Removal does not
// touch certificates the identity already issued; custodial responsibility
// for prior issuances survives removal.
func (s *Service) RemoveIssuer(ctx context.Context, caller, identity id.Identity) error {
	return s.changeIssuerSet(ctx, caller, identity, audit.KindIssuerRemoved, s.access.Revoke)
}

func (s *Service) changeIssuerSet(ctx context.Context, caller, identity id.Identity, kind audit.Kind, mutate func(context.Context, id.Identity) error) error {
	ctx, span := s.tracer.Start(ctx, "registry."+string(kind))
	defer span.End()
	start := time.Now()

	_, err := s.seq.Commit(ctx, func(ctx context.Context, seq uint64) error {
		ok, err := s.access.IsAdmin(ctx, caller)
		if err != nil {
			return s.internal("check admin", err)
		}
		if !ok {
			return dErrors.New(dErrors.CodeUnauthorized, "only the administrator may manage issuers")
		}

		if err := mutate(ctx, identity); err != nil {
			return s.internal("mutate issuer set", err)
		}

		return s.append(ctx, audit.Entry{
			Seq:       seq,
			Kind:      kind,
			Timestamp: time.Now().UTC(),
			Actor:     caller,
			Identity:  identity,
		})
	})
	if err != nil {
		return s.reject(err)
	}

	if s.metrics != nil {
		s.metrics.IssuerSetChanges.Inc()
		s.metrics.ObserveTransition(start)
	}
	s.logger.InfoContext(ctx, "issuer set changed", "kind", kind, "identity", identity)
	return nil
}

// append writes the trail entry and feeds the event surface while still
// inside the sequencer, so sinks observe entries in exactly commit order.
func (s *Service) append(ctx context.Context, entry audit.Entry) error {
	if err := s.trail.Append(ctx, entry); err != nil {
		return s.internal("append audit entry", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Emit(ctx, entry); err != nil {
			// Sinks are best-effort; the trail already holds the entry.
			s.logger.WarnContext(ctx, "event emit failed", "seq", entry.Seq, "error", err)
		}
	}
	return nil
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("registry store failure", "op", op, "error", err)
	return dErrors.New(dErrors.CodeInternal, op+" failed")
}

func (s *Service) reject(err error) error {
	if s.metrics != nil {
		s.metrics.TransitionsRejected.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	}
	return err
}
