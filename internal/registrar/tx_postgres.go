package registrar

import (
	"context"
	"database/sql"
	"time"

	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/platform/postgres"
	"propmarket/internal/seller"
	dErrors "propmarket/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// PostgresTx runs registrar callbacks inside one SQL transaction, handing
// the callback stores bound to that transaction. Rollback on any error; a
// cancelled request never leaves a transaction open to commit later.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return postgres.ClassifyError(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := Stores{
		Identities: identity.NewPostgresTx(tx),
		Customers:  customer.NewPostgresTx(tx),
		Sellers:    seller.NewPostgresTx(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return postgres.ClassifyError(err)
	}
	return nil
}
