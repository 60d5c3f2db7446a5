package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "certledger/pkg/domain"
	txcontext "certledger/pkg/platform/tx"
)

// PostgresStore persists the trail in an append-only table. Seq is the
// primary key, so a duplicated sequence number fails loudly instead of
// silently reordering history.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for the audit trail. Applied by deployment tooling; kept here so the
// store and its table evolve together.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq         BIGINT PRIMARY KEY,
	kind        TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	cert_id     BIGINT NOT NULL DEFAULT 0,
	issuer      TEXT NOT NULL DEFAULT '',
	recipient   TEXT NOT NULL DEFAULT '',
	content_ref TEXT NOT NULL DEFAULT '',
	digest      TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	identity    TEXT NOT NULL DEFAULT ''
);
`

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_entries
			(seq, kind, ts, cert_id, issuer, recipient, content_ref, digest, metadata, actor, identity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.Seq, string(entry.Kind), entry.Timestamp, uint64(entry.CertID),
		string(entry.Issuer), string(entry.Recipient), entry.ContentRef,
		entry.Digest, entry.Metadata, string(entry.Actor), string(entry.Identity),
	)
	if err != nil {
		return fmt.Errorf("append audit entry %d: %w", entry.Seq, err)
	}
	return nil
}

func (s *PostgresStore) Entries(ctx context.Context) ([]Entry, error) {
	return s.EntriesAfter(ctx, 0, 0)
}

func (s *PostgresStore) EntriesAfter(ctx context.Context, after uint64, limit int) ([]Entry, error) {
	query := `
		SELECT seq, kind, ts, cert_id, issuer, recipient, content_ref, digest, metadata, actor, identity
		FROM audit_entries WHERE seq > $1 ORDER BY seq`
	args := []any{after}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind, issuer, recipient, actor, identity string
		var certID uint64
		var ts time.Time
		if err := rows.Scan(&e.Seq, &kind, &ts, &certID, &issuer, &recipient,
			&e.ContentRef, &e.Digest, &e.Metadata, &actor, &identity); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.Timestamp = ts
		e.CertID = id.CertID(certID)
		e.Issuer = id.Identity(issuer)
		e.Recipient = id.Identity(recipient)
		e.Actor = id.Identity(actor)
		e.Identity = id.Identity(identity)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// MaxSeq returns the highest committed sequence number, or zero for an empty
// trail. The transactional sequencer uses it to resume numbering on restart.
func (s *PostgresStore) MaxSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM audit_entries`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max audit seq: %w", err)
	}
	return seq, nil
}
