//go:build integration

package kafka_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"certledger/internal/audit"
	"certledger/internal/audit/publishers/kafka"
	"certledger/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaSinkSuite) TearDownSuite() {
	_ = s.redpanda.Container.Terminate(context.Background())
}

func (s *KafkaSinkSuite) TestPublishPreservesCommitOrder() {
	ctx := context.Background()
	const topic = "certledger.transitions.test"

	sink, err := kafka.New([]string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()

	for seq := uint64(1); seq <= 3; seq++ {
		err := sink.Publish(ctx, audit.Entry{
			Seq:       seq,
			Kind:      audit.KindCertificateIssued,
			Timestamp: time.Now().UTC(),
			CertID:    1,
			Issuer:    "uni",
			Recipient: "alice",
		})
		s.Require().NoError(err)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < 3 {
		fetches := consumer.PollFetches(fetchCtx)
		s.Require().NoError(fetches.Err())
		records = append(records, fetches.Records()...)
	}

	s.Require().Len(records, 3)
	for i, record := range records {
		s.Equal(uint64(i+1), binary.BigEndian.Uint64(record.Key))

		var entry audit.Entry
		s.Require().NoError(json.Unmarshal(record.Value, &entry))
		s.Equal(uint64(i+1), entry.Seq)
		s.Equal(audit.KindCertificateIssued, entry.Kind)
		s.Equal("uni", string(entry.Issuer))
	}
}
