//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"certledger/internal/registry/models"
	"certledger/internal/registry/store"
	id "certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
	"certledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.Apply(context.Background(), store.Schema))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	ctx := context.Background()
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "certificates"))
}

func mustDigest(s *PostgresStoreSuite, hex string) id.Digest {
	d, err := id.ParseDigest(hex)
	s.Require().NoError(err)
	return d
}

func (s *PostgresStoreSuite) TestAllocateAssignsDenseIDs() {
	ctx := context.Background()
	digest := mustDigest(s, "aa0102030405060708091011121314151617181920212223242526272829aabb")

	for want := uint64(1); want <= 3; want++ {
		certID, err := s.store.Allocate(ctx, "uni", "alice", "sha256:ref", digest, "")
		s.Require().NoError(err)
		s.Equal(id.CertID(want), certID)
	}

	total, err := s.store.Total(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), total)
}

func (s *PostgresStoreSuite) TestGetRoundTrip() {
	ctx := context.Background()
	digest := mustDigest(s, "aa0102030405060708091011121314151617181920212223242526272829aabb")

	certID, err := s.store.Allocate(ctx, "uni", "alice", "sha256:ref", digest, `{"degree":"BSc"}`)
	s.Require().NoError(err)

	record, err := s.store.Get(ctx, certID)
	s.Require().NoError(err)
	s.Equal(certID, record.ID)
	s.Equal(id.Identity("uni"), record.Issuer)
	s.Equal(id.Identity("alice"), record.Recipient)
	s.Equal("sha256:ref", record.ContentRef)
	s.Equal(digest, record.Digest)
	s.Equal(`{"degree":"BSc"}`, record.Metadata)
	s.Equal(models.StatusActive, record.Status)
	s.True(record.IsActive())

	_, err = s.store.Get(ctx, id.CertID(999))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetContentAndRevoke() {
	ctx := context.Background()
	digest := mustDigest(s, "aa0102030405060708091011121314151617181920212223242526272829aabb")
	updated := mustDigest(s, "bb0102030405060708091011121314151617181920212223242526272829ccdd")

	certID, err := s.store.Allocate(ctx, "uni", "alice", "sha256:v1", digest, "")
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetContent(ctx, certID, "sha256:v2", updated))
	s.Require().NoError(s.store.MarkRevoked(ctx, certID, 7))

	record, err := s.store.Get(ctx, certID)
	s.Require().NoError(err)
	s.Equal("sha256:v2", record.ContentRef)
	s.Equal(updated, record.Digest)
	s.Equal(models.StatusRevoked, record.Status)
	s.Equal(uint64(7), record.RevokedAt)

	s.ErrorIs(s.store.SetContent(ctx, id.CertID(999), "sha256:v3", updated), sentinel.ErrNotFound)
	s.ErrorIs(s.store.MarkRevoked(ctx, id.CertID(999), 8), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestIdentityIndexesPreserveIssueOrder() {
	ctx := context.Background()
	digest := mustDigest(s, "aa0102030405060708091011121314151617181920212223242526272829aabb")

	first, err := s.store.Allocate(ctx, "uni", "alice", "sha256:a", digest, "")
	s.Require().NoError(err)
	_, err = s.store.Allocate(ctx, "college", "bob", "sha256:b", digest, "")
	s.Require().NoError(err)
	third, err := s.store.Allocate(ctx, "uni", "alice", "sha256:c", digest, "")
	s.Require().NoError(err)

	byIssuer, err := s.store.ByIssuer(ctx, "uni")
	s.Require().NoError(err)
	s.Equal([]id.CertID{first, third}, byIssuer)

	byRecipient, err := s.store.ByRecipient(ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]id.CertID{first, third}, byRecipient)

	empty, err := s.store.ByIssuer(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}
