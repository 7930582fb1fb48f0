package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db             *sql.DB
	dsn            string
	acquireTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithAcquireTimeout caps how long Begin waits for the connection before
// reporting store.ErrConnectionExhausted. Zero waits on ctx alone.
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *Store) { s.acquireTimeout = d }
}

// NewStore opens the database at dsn. SQLite allows a single writer, so the
// pool is capped at one connection: transactions are serialised and an
// in-memory database stays the same database for the life of the Store.
// Callers must not use the Store's own repositories while holding a Tx.
func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &Store{db: db, dsn: dsn}
	for _, opt := range opts {
		opt(st)
	}
	return st, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	acquireCtx := ctx
	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}

	// The connection is acquired under the timeout, but the transaction is
	// bound to ctx so it outlives acquireCtx.
	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if acquireExpired(ctx, acquireCtx) {
			return nil, store.ErrConnectionExhausted
		}
		return nil, store.TxFailure("begin", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, store.TxFailure("begin", err)
	}
	return newTx(conn, tx), nil
}

// acquireExpired reports whether the acquire timeout fired while the
// caller's own context was still live.
func acquireExpired(ctx, acquireCtx context.Context) bool {
	return ctx.Err() == nil && errors.Is(acquireCtx.Err(), context.DeadlineExceeded)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users       { return &usersRepo{q: s.db, db: s.db} }
func (s *Store) Profiles() store.Profiles { return &profilesRepo{q: s.db} }
func (s *Store) Outbox() store.OutboxLog  { return &outboxRepo{q: s.db} }

// atomically runs fn on q directly when already inside a transaction, or in a
// short-lived transaction of its own otherwise.
func atomically(ctx context.Context, db *sql.DB, q dbtx, fn func(q dbtx) error) error {
	if db == nil {
		return fn(q)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return store.TxFailure("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return store.TxFailure("commit", tx.Commit())
}

func mapNotFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return store.Unexpected(op, err)
}

// mapWriteError translates unique violations into store.ErrAlreadyExists.
func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.Conflict(op, err)
		}
	}
	return store.Unexpected(op, err)
}

func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unexpected(op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

// utc strips the monotonic reading and zone so stored values sort lexically.
func utc(t time.Time) time.Time { return t.UTC() }
