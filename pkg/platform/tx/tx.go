package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// With returns a context carrying an open database transaction. Stores that
// find a transaction in the context execute against it instead of their own
// connection pool, so a whole registry transition commits or rolls back as
// one unit.
func With(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

// From extracts the transaction from the context, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx, ok
}
