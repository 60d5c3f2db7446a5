package kafka

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"certledger/internal/audit"
)

// Sink publishes committed transitions to a Kafka topic as JSON. The topic
// should be single-partition: the registry's event surface is a total order,
// and partitioning would let consumers observe transitions out of sequence.
type Sink struct {
	client *kgo.Client
	topic  string
}

func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// Publish produces synchronously so a delivered entry is durable before the
// next one is attempted, preserving commit order end to end.
func (s *Sink) Publish(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %d: %w", entry.Seq, err)
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, entry.Seq)

	record := &kgo.Record{Topic: s.topic, Key: key, Value: payload}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce entry %d: %w", entry.Seq, err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}
