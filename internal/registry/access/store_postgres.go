package access

import (
	"context"
	"database/sql"
	"fmt"

	id "certledger/pkg/domain"
	txcontext "certledger/pkg/platform/tx"
)

// PostgresStore persists the issuer set. The administrator identity comes
// from configuration, not the database, mirroring the deploy-time fixed
// singleton.
type PostgresStore struct {
	db    *sql.DB
	admin id.Identity
}

func NewPostgres(db *sql.DB, admin id.Identity) *PostgresStore {
	return &PostgresStore{db: db, admin: admin}
}

const Schema = `
CREATE TABLE IF NOT EXISTS issuers (
	identity TEXT PRIMARY KEY
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

func (s *PostgresStore) Admin(_ context.Context) (id.Identity, error) {
	return s.admin, nil
}

func (s *PostgresStore) IsAdmin(_ context.Context, identity id.Identity) (bool, error) {
	return identity == s.admin, nil
}

func (s *PostgresStore) IsIssuer(ctx context.Context, identity id.Identity) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM issuers WHERE identity = $1)`, string(identity)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check issuer: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Grant(ctx context.Context, identity id.Identity) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO issuers (identity) VALUES ($1) ON CONFLICT DO NOTHING`, string(identity))
	if err != nil {
		return fmt.Errorf("grant issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, identity id.Identity) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM issuers WHERE identity = $1`, string(identity))
	if err != nil {
		return fmt.Errorf("revoke issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) Issuers(ctx context.Context) ([]id.Identity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT identity FROM issuers`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	var out []id.Identity
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		out = append(out, id.Identity(identity))
	}
	return out, rows.Err()
}
