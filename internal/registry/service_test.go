package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"certledger/internal/audit"
	"certledger/internal/registry/access"
	"certledger/internal/registry/models"
	"certledger/internal/registry/sequencer"
	"certledger/internal/registry/store"
	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

var (
	admin       = id.Identity("0xadmin")
	issuerA     = id.Identity("0xuniversity-a")
	issuerB     = id.Identity("0xuniversity-b")
	student     = id.Identity("0xstudent")
	digestV1, _ = id.ParseDigest(strings.Repeat("11", id.DigestSize))
	digestV2, _ = id.ParseDigest(strings.Repeat("22", id.DigestSize))
)

// capturePublisher records emitted entries so tests can assert on the event
// surface without a broker.
type capturePublisher struct {
	entries []audit.Entry
}

func (p *capturePublisher) Emit(_ context.Context, entry audit.Entry) error {
	p.entries = append(p.entries, entry)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	accessSt  *access.InMemoryStore
	records   *store.InMemoryStore
	trail     *audit.InMemoryStore
	published *capturePublisher
	svc       *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.accessSt = access.NewInMemoryStore(admin)
	s.records = store.NewInMemoryStore()
	s.trail = audit.NewInMemoryStore()
	s.published = &capturePublisher{}

	svc, err := New(s.accessSt, s.records, s.trail, sequencer.NewSerial(0),
		WithPublisher(s.published))
	s.Require().NoError(err)
	s.svc = svc

	s.Require().NoError(s.svc.AddIssuer(s.ctx, admin, issuerA))
	s.Require().NoError(s.svc.AddIssuer(s.ctx, admin, issuerB))
}

func (s *ServiceSuite) issue(caller id.Identity) id.CertID {
	certID, err := s.svc.IssueCertificate(s.ctx, caller, student, "bafy-transcript", digestV1, "BSc CS 2026")
	s.Require().NoError(err)
	return certID
}

func (s *ServiceSuite) trailLen() int {
	n, err := s.trail.Len(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *ServiceSuite) TestIssueCertificate() {
	s.Run("issuer can issue and gets id 1", func() {
		certID := s.issue(issuerA)
		s.Equal(id.CertID(1), certID)

		record, err := s.svc.Get(s.ctx, certID)
		s.Require().NoError(err)
		s.Equal(issuerA, record.Issuer)
		s.Equal(student, record.Recipient)
		s.Equal("bafy-transcript", record.ContentRef)
		s.Equal(digestV1, record.Digest)
		s.Equal("BSc CS 2026", record.Metadata)
		s.Equal(models.StatusActive, record.Status)
	})

	s.Run("issuance appends one audit entry", func() {
		entries, err := s.trail.Entries(s.ctx)
		s.Require().NoError(err)
		last := entries[len(entries)-1]
		s.Equal(audit.KindCertificateIssued, last.Kind)
		s.Equal(id.CertID(1), last.CertID)
		s.Equal(digestV1.String(), last.Digest)
	})

	s.Run("event surface mirrors the trail in order", func() {
		entries, err := s.trail.Entries(s.ctx)
		s.Require().NoError(err)
		s.Equal(entries, s.published.entries)
	})

	s.Run("admin is not implicitly an issuer", func() {
		_, err := s.svc.IssueCertificate(s.ctx, admin, student, "bafy-x", digestV1, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestIssueValidation() {
	before := s.trailLen()

	s.Run("empty content ref", func() {
		_, err := s.svc.IssueCertificate(s.ctx, issuerA, student, "", digestV1, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("zero digest", func() {
		_, err := s.svc.IssueCertificate(s.ctx, issuerA, student, "bafy-x", id.Digest{}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejections leave no trace", func() {
		s.Equal(before, s.trailLen())
		total, err := s.svc.Total(s.ctx)
		s.Require().NoError(err)
		s.Zero(total)
	})
}

func (s *ServiceSuite) TestUpdateCertificate() {
	certID := s.issue(issuerA)

	s.Run("issuer updates content and digest together", func() {
		s.Require().NoError(s.svc.UpdateCertificate(s.ctx, issuerA, certID, "bafy-v2", digestV2))

		record, err := s.svc.Get(s.ctx, certID)
		s.Require().NoError(err)
		s.Equal("bafy-v2", record.ContentRef)
		s.Equal(digestV2, record.Digest)
		s.Equal("BSc CS 2026", record.Metadata, "metadata is write-once")
	})

	s.Run("another issuer cannot update", func() {
		err := s.svc.UpdateCertificate(s.ctx, issuerB, certID, "bafy-evil", digestV1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("the administrator cannot update", func() {
		err := s.svc.UpdateCertificate(s.ctx, admin, certID, "bafy-evil", digestV1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown id is not found", func() {
		err := s.svc.UpdateCertificate(s.ctx, issuerA, 999, "bafy-v3", digestV1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestTerminalRevocation() {
	certID := s.issue(issuerA)
	seqBefore := s.trailLen()

	s.Require().NoError(s.svc.RevokeCertificate(s.ctx, issuerA, certID))

	s.Run("revocation records the committing sequence number", func() {
		record, err := s.svc.Get(s.ctx, certID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, record.Status)
		s.Equal(uint64(seqBefore+1), record.RevokedAt)
	})

	s.Run("update after revoke is invalid_state", func() {
		err := s.svc.UpdateCertificate(s.ctx, issuerA, certID, "bafy-v2", digestV2)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("second revoke is invalid_state, not idempotent", func() {
		err := s.svc.RevokeCertificate(s.ctx, issuerA, certID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("revoked record remains readable", func() {
		record, err := s.svc.Get(s.ctx, certID)
		s.Require().NoError(err)
		s.Equal(digestV1, record.Digest, "digest survives revocation for post-hoc verification")
	})
}

// TestAuthorizationMonotonicity: removing an identity from the issuer set
// blocks new issuances but not custody of prior ones.
func (s *ServiceSuite) TestAuthorizationMonotonicity() {
	certID := s.issue(issuerA)

	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, admin, issuerA))

	s.Run("removed issuer cannot issue", func() {
		_, err := s.svc.IssueCertificate(s.ctx, issuerA, student, "bafy-new", digestV1, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("removed issuer can still update its own certificate", func() {
		s.Require().NoError(s.svc.UpdateCertificate(s.ctx, issuerA, certID, "bafy-v2", digestV2))
	})

	s.Run("removed issuer can still revoke its own certificate", func() {
		s.Require().NoError(s.svc.RevokeCertificate(s.ctx, issuerA, certID))
	})
}

func (s *ServiceSuite) TestIssuerSetManagement() {
	s.Run("non-admin cannot manage issuers", func() {
		err := s.svc.AddIssuer(s.ctx, issuerA, student)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		err = s.svc.RemoveIssuer(s.ctx, issuerA, issuerB)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("re-adding a present issuer still commits an entry", func() {
		before := s.trailLen()
		s.Require().NoError(s.svc.AddIssuer(s.ctx, admin, issuerA))
		s.Equal(before+1, s.trailLen())

		ok, err := s.svc.IsIssuer(s.ctx, issuerA)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("removing an absent issuer still commits an entry", func() {
		before := s.trailLen()
		s.Require().NoError(s.svc.RemoveIssuer(s.ctx, admin, student))
		s.Equal(before+1, s.trailLen())
	})
}

// TestUniqueness: ids are strictly increasing and never reused, even across
// rejected attempts.
func (s *ServiceSuite) TestUniqueness() {
	first := s.issue(issuerA)

	_, err := s.svc.IssueCertificate(s.ctx, student, student, "bafy-x", digestV1, "")
	s.Require().Error(err, "non-issuer issuance must be rejected")

	second := s.issue(issuerB)
	s.Equal(first+1, second, "rejected attempts must not consume ids")

	total, err := s.svc.Total(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(second), total)
}

func (s *ServiceSuite) TestIndexConsistency() {
	c1 := s.issue(issuerA)
	c2 := s.issue(issuerB)
	c3 := s.issue(issuerA)

	s.Require().NoError(s.svc.RevokeCertificate(s.ctx, issuerA, c1))
	s.Require().NoError(s.svc.UpdateCertificate(s.ctx, issuerB, c2, "bafy-v2", digestV2))

	byA, err := s.svc.CertificatesOfIssuer(s.ctx, issuerA)
	s.Require().NoError(err)
	s.Equal([]id.CertID{c1, c3}, byA, "issuance order, revocation does not remove")

	byB, err := s.svc.CertificatesOfIssuer(s.ctx, issuerB)
	s.Require().NoError(err)
	s.Equal([]id.CertID{c2}, byB)

	byStudent, err := s.svc.CertificatesOfRecipient(s.ctx, student)
	s.Require().NoError(err)
	s.Equal([]id.CertID{c1, c2, c3}, byStudent)
}

// TestRejectionIsolation: a rejected transition produces zero audit entries
// and leaves all store data unchanged.
func (s *ServiceSuite) TestRejectionIsolation() {
	certID := s.issue(issuerA)
	trailBefore, err := s.trail.Entries(s.ctx)
	s.Require().NoError(err)
	recordBefore, err := s.svc.Get(s.ctx, certID)
	s.Require().NoError(err)

	_, err = s.svc.IssueCertificate(s.ctx, student, student, "bafy-x", digestV1, "")
	s.Require().Error(err)
	err = s.svc.UpdateCertificate(s.ctx, issuerB, certID, "bafy-evil", digestV2)
	s.Require().Error(err)
	err = s.svc.RevokeCertificate(s.ctx, issuerB, certID)
	s.Require().Error(err)
	err = s.svc.AddIssuer(s.ctx, issuerA, student)
	s.Require().Error(err)

	trailAfter, err := s.trail.Entries(s.ctx)
	s.Require().NoError(err)
	s.Equal(trailBefore, trailAfter)

	recordAfter, err := s.svc.Get(s.ctx, certID)
	s.Require().NoError(err)
	s.Equal(recordBefore, recordAfter)
}

func (s *ServiceSuite) TestAuditSequenceIsContiguous() {
	s.issue(issuerA)
	c := s.issue(issuerB)
	s.Require().NoError(s.svc.RevokeCertificate(s.ctx, issuerB, c))

	entries, err := s.trail.Entries(s.ctx)
	s.Require().NoError(err)
	for i, e := range entries {
		s.Equal(uint64(i+1), e.Seq)
	}
}
