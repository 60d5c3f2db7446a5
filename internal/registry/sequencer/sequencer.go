package sequencer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	txcontext "certledger/pkg/platform/tx"
)

// Sequencer is the commitment substrate: it assigns each submitted transition
// a single, globally agreed position in the total order, or rejects it before
// any position is assigned. apply runs with the candidate sequence number;
// if it returns an error the transition is rejected, the number is not
// consumed, and no other transition may have observed a partial state.
type Sequencer interface {
	Commit(ctx context.Context, apply func(ctx context.Context, seq uint64) error) (uint64, error)
}

// Serial is the in-process implementation: one transition at a time under a
// mutex. The realized commit order is exactly the audit trail order.
type Serial struct {
	mu   sync.Mutex
	next uint64
}

// NewSerial starts numbering at last+1. Pass 0 for a fresh registry.
func NewSerial(last uint64) *Serial {
	return &Serial{next: last}
}

func (s *Serial) Commit(ctx context.Context, apply func(ctx context.Context, seq uint64) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seq := s.next + 1
	if err := apply(ctx, seq); err != nil {
		return 0, err
	}
	s.next = seq
	return seq, nil
}

// Last returns the highest committed sequence number.
func (s *Serial) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Transactional wraps Serial with a database transaction per transition, so
// record, role and audit writes commit or roll back as one unit. Stores pick
// the transaction up from the context (pkg/platform/tx).
type Transactional struct {
	mu   sync.Mutex
	next uint64
	db   *sql.DB
}

// NewTransactional resumes numbering from last, typically the audit trail's
// MaxSeq at startup.
func NewTransactional(db *sql.DB, last uint64) *Transactional {
	return &Transactional{db: db, next: last}
}

func (s *Transactional) Commit(ctx context.Context, apply func(ctx context.Context, seq uint64) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transition: %w", err)
	}

	seq := s.next + 1
	if err := apply(txcontext.With(ctx, tx), seq); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transition %d: %w", seq, err)
	}
	s.next = seq
	return seq, nil
}
