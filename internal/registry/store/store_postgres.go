package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"certledger/internal/registry/models"
	id "certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
	txcontext "certledger/pkg/platform/tx"
)

// PostgresStore persists certificate records. Id allocation rides on a
// BIGSERIAL so ids stay dense and monotone as long as allocation happens
// under the registry's single-writer sequencer (a rolled-back transaction
// would burn a serial value, which is why allocation must only run inside a
// committed transition).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS certificates (
	id          BIGSERIAL PRIMARY KEY,
	issuer      TEXT NOT NULL,
	recipient   TEXT NOT NULL,
	content_ref TEXT NOT NULL,
	digest      TEXT NOT NULL,
	metadata    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'active',
	revoked_at  BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS certificates_issuer_idx ON certificates (issuer, id);
CREATE INDEX IF NOT EXISTS certificates_recipient_idx ON certificates (recipient, id);
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

func (s *PostgresStore) Allocate(ctx context.Context, issuer, recipient id.Identity, contentRef string, digest id.Digest, metadata string) (id.CertID, error) {
	var certID uint64
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO certificates (issuer, recipient, content_ref, digest, metadata, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id`,
		string(issuer), string(recipient), contentRef, digest.String(), metadata,
	).Scan(&certID)
	if err != nil {
		return 0, fmt.Errorf("allocate certificate: %w", err)
	}
	return id.CertID(certID), nil
}

func (s *PostgresStore) Get(ctx context.Context, certID id.CertID) (models.Certificate, error) {
	var (
		record    models.Certificate
		rawID     uint64
		issuer    string
		recipient string
		digestHex string
		status    string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, issuer, recipient, content_ref, digest, metadata, status, revoked_at
		FROM certificates WHERE id = $1`, uint64(certID),
	).Scan(&rawID, &issuer, &recipient, &record.ContentRef, &digestHex,
		&record.Metadata, &status, &record.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Certificate{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("get certificate %d: %w", certID, err)
	}

	record.ID = id.CertID(rawID)
	record.Issuer = id.Identity(issuer)
	record.Recipient = id.Identity(recipient)
	record.Status = models.Status(status)
	if _, err := hex.Decode(record.Digest[:], []byte(digestHex)); err != nil {
		return models.Certificate{}, fmt.Errorf("decode stored digest for %d: %w", certID, err)
	}
	return record, nil
}

func (s *PostgresStore) Exists(ctx context.Context, certID id.CertID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM certificates WHERE id = $1)`, uint64(certID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check certificate %d: %w", certID, err)
	}
	return exists, nil
}

func (s *PostgresStore) SetContent(ctx context.Context, certID id.CertID, contentRef string, digest id.Digest) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE certificates SET content_ref = $2, digest = $3 WHERE id = $1`,
		uint64(certID), contentRef, digest.String())
	if err != nil {
		return fmt.Errorf("set content for %d: %w", certID, err)
	}
	return requireOneRow(res, certID)
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, certID id.CertID, atSeq uint64) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE certificates SET status = 'revoked', revoked_at = $2 WHERE id = $1`,
		uint64(certID), atSeq)
	if err != nil {
		return fmt.Errorf("mark revoked %d: %w", certID, err)
	}
	return requireOneRow(res, certID)
}

func requireOneRow(res sql.Result, certID id.CertID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("certificate %d: %w", certID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ByIssuer(ctx context.Context, issuer id.Identity) ([]id.CertID, error) {
	return s.index(ctx, `SELECT id FROM certificates WHERE issuer = $1 ORDER BY id`, string(issuer))
}

func (s *PostgresStore) ByRecipient(ctx context.Context, recipient id.Identity) ([]id.CertID, error) {
	return s.index(ctx, `SELECT id FROM certificates WHERE recipient = $1 ORDER BY id`, string(recipient))
}

func (s *PostgresStore) index(ctx context.Context, query, identity string) ([]id.CertID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("index scan: %w", err)
	}
	defer rows.Close()

	ids := []id.CertID{}
	for rows.Next() {
		var raw uint64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id.CertID(raw))
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Total(ctx context.Context) (uint64, error) {
	var total uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM certificates`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total certificates: %w", err)
	}
	return total, nil
}
