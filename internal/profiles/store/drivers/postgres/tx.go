package postgres

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/jackc/pgx/v5"
)

type txStore struct {
	tx pgx.Tx

	// ctx is the context the transaction was opened under. A cancelled
	// request must not commit.
	ctx context.Context
}

func newTx(ctx context.Context, tx pgx.Tx) *txStore {
	return &txStore{tx: tx, ctx: ctx}
}

func (t *txStore) Commit() error {
	return store.TxFailure("commit", t.tx.Commit(t.ctx))
}

func (t *txStore) Rollback() error {
	err := t.tx.Rollback(context.WithoutCancel(t.ctx))
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return store.TxFailure("rollback", err)
}

func (t *txStore) Users() store.Users       { return &usersRepo{q: t.tx} }
func (t *txStore) Profiles() store.Profiles { return &profilesRepo{q: t.tx} }
func (t *txStore) Outbox() store.Outbox     { return &outboxRepo{q: t.tx} }
