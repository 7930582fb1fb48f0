package sqlite

import (
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/profiles/internal/profiles/store"
)

// txStore owns the connection its transaction runs on and returns it to the
// pool once the transaction ends.
type txStore struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func newTx(conn *sql.Conn, tx *sql.Tx) *txStore {
	return &txStore{conn: conn, tx: tx}
}

func (t *txStore) Commit() error {
	err := t.tx.Commit()
	_ = t.conn.Close()
	return store.TxFailure("commit", err)
}

func (t *txStore) Rollback() error {
	err := t.tx.Rollback()
	_ = t.conn.Close()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return store.TxFailure("rollback", err)
}

func (t *txStore) Users() store.Users       { return &usersRepo{q: t.tx} }
func (t *txStore) Profiles() store.Profiles { return &profilesRepo{q: t.tx} }
func (t *txStore) Outbox() store.Outbox     { return &outboxRepo{q: t.tx} }
