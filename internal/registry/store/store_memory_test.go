package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

var (
	testIssuer     = id.Identity("0xuniversity")
	testRecipient  = id.Identity("0xstudent")
	testDigest, _  = id.ParseDigest(strings.Repeat("ab", id.DigestSize))
	otherDigest, _ = id.ParseDigest(strings.Repeat("cd", id.DigestSize))
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) allocate(issuer, recipient id.Identity) id.CertID {
	certID, err := s.store.Allocate(s.ctx, issuer, recipient, "bafy-doc", testDigest, "BSc 2026")
	s.Require().NoError(err)
	return certID
}

func (s *InMemoryStoreSuite) TestAllocate() {
	s.Run("ids are dense and start at 1", func() {
		s.Equal(id.CertID(1), s.allocate(testIssuer, testRecipient))
		s.Equal(id.CertID(2), s.allocate(testIssuer, testRecipient))

		total, err := s.store.Total(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(2), total)
	})

	s.Run("record is inserted active with all fields", func() {
		record, err := s.store.Get(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal(testIssuer, record.Issuer)
		s.Equal(testRecipient, record.Recipient)
		s.Equal("bafy-doc", record.ContentRef)
		s.Equal(testDigest, record.Digest)
		s.Equal("BSc 2026", record.Metadata)
		s.Equal(models.StatusActive, record.Status)
		s.Zero(record.RevokedAt)
	})

	s.Run("indexes grow in issuance order", func() {
		byIssuer, err := s.store.ByIssuer(s.ctx, testIssuer)
		s.Require().NoError(err)
		s.Equal([]id.CertID{1, 2}, byIssuer)

		byRecipient, err := s.store.ByRecipient(s.ctx, testRecipient)
		s.Require().NoError(err)
		s.Equal([]id.CertID{1, 2}, byRecipient)
	})
}

func (s *InMemoryStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(s.ctx, 99)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	ok, err := s.store.Exists(s.ctx, 99)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryStoreSuite) TestSetContent() {
	certID := s.allocate(testIssuer, testRecipient)

	s.Require().NoError(s.store.SetContent(s.ctx, certID, "bafy-doc-v2", otherDigest))

	record, err := s.store.Get(s.ctx, certID)
	s.Require().NoError(err)
	s.Equal("bafy-doc-v2", record.ContentRef)
	s.Equal(otherDigest, record.Digest)
	s.Equal("BSc 2026", record.Metadata, "metadata is write-once")
	s.Equal(models.StatusActive, record.Status)
}

func (s *InMemoryStoreSuite) TestMarkRevoked() {
	certID := s.allocate(testIssuer, testRecipient)

	s.Require().NoError(s.store.MarkRevoked(s.ctx, certID, 7))

	record, err := s.store.Get(s.ctx, certID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, record.Status)
	s.Equal(uint64(7), record.RevokedAt)

	s.Run("revoked records stay in the indexes", func() {
		byIssuer, err := s.store.ByIssuer(s.ctx, testIssuer)
		s.Require().NoError(err)
		s.Equal([]id.CertID{certID}, byIssuer)
	})
}

func (s *InMemoryStoreSuite) TestEmptyIndexes() {
	byIssuer, err := s.store.ByIssuer(s.ctx, "0xnobody")
	s.Require().NoError(err)
	s.Empty(byIssuer)
}
