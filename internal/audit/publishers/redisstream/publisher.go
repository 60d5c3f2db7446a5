package redisstream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"certledger/internal/audit"
)

// Sink appends committed transitions to a Redis stream. XADD with
// auto-generated IDs preserves insertion order, so consumers tailing with
// XREAD observe the registry's total order.
type Sink struct {
	client *redis.Client
	stream string
}

func New(client *redis.Client, stream string) *Sink {
	return &Sink{client: client, stream: stream}
}

func (s *Sink) Publish(ctx context.Context, entry audit.Entry) error {
	values := map[string]any{
		"seq":  strconv.FormatUint(entry.Seq, 10),
		"kind": string(entry.Kind),
		"ts":   entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
	}
	if !entry.CertID.IsZero() {
		values["cert_id"] = entry.CertID.String()
	}
	if entry.Issuer != "" {
		values["issuer"] = string(entry.Issuer)
	}
	if entry.Recipient != "" {
		values["recipient"] = string(entry.Recipient)
	}
	if entry.ContentRef != "" {
		values["content_ref"] = entry.ContentRef
	}
	if entry.Digest != "" {
		values["digest"] = entry.Digest
	}
	if entry.Metadata != "" {
		values["metadata"] = entry.Metadata
	}
	if entry.Actor != "" {
		values["actor"] = string(entry.Actor)
	}
	if entry.Identity != "" {
		values["identity"] = string(entry.Identity)
	}

	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd entry %d: %w", entry.Seq, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.client.Close()
}
