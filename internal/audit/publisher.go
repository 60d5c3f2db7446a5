package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink delivers committed entries to one external destination (a Kafka topic,
// a Redis stream). Sinks receive entries in commit order.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
	Close() error
}

// Publisher fans committed entries out to every configured sink. The audit
// trail is the authoritative record; sinks exist for indexers and front ends
// tailing the registry, so a sink failure is logged and skipped rather than
// failing the transition.
//
// In sync mode (default) Emit publishes inline. With an async buffer, Emit
// enqueues and a single worker drains in order; Emit blocks when the buffer
// is full because the event surface is ordered and lossless.
type Publisher struct {
	sinks  []Sink
	logger *slog.Logger

	buf       chan Entry
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer decouples Emit from sink latency with an n-entry queue.
func WithAsyncBuffer(n int) PublisherOption {
	return func(p *Publisher) {
		p.buf = make(chan Entry, n)
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		sinks:  sinks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.buf != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for entry := range p.buf {
				p.publish(context.Background(), entry)
			}
		}()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if p.buf == nil {
		p.publish(ctx, entry)
		return nil
	}

	select {
	case p.buf <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) publish(ctx context.Context, entry Entry) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, entry); err != nil {
			p.logger.Warn("sink publish failed", "seq", entry.Seq, "kind", entry.Kind, "error", err)
		}
	}
}

// Close drains the async queue, then closes every sink.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.buf != nil {
			close(p.buf)
			p.wg.Wait()
		}
		for _, sink := range p.sinks {
			if err := sink.Close(); err != nil {
				p.logger.Warn("sink close failed", "error", err)
			}
		}
	})
}
