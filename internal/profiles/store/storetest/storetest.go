// Package storetest holds the behaviour every store driver must share. Driver
// packages call Run from their own tests with a factory for a fresh, migrated
// store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. It should register its own
// cleanup.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("reset requests", func(t *testing.T) { testResetRequests(t, newStore(t)) })
	t.Run("concurrent token redemption", func(t *testing.T) { testConcurrentTokenRedemption(t, newStore(t)) })
	t.Run("profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("outbox", func(t *testing.T) { testOutbox(t, newStore(t)) })
	t.Run("commit", func(t *testing.T) { testCommit(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("with tx error", func(t *testing.T) { testWithTxError(t, newStore(t)) })
	t.Run("with tx panic", func(t *testing.T) { testWithTxPanic(t, newStore(t)) })
}

// Clock is a fixed reference time with whole-millisecond precision so every
// backend round-trips it exactly.
var Clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func NewUser(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := domain.NewUser(idx.New().String(), email, "hash")
	require.NoError(t, err)
	u.CreatedAt = Clock
	u.UpdatedAt = Clock
	return u
}

func NewProfile(t *testing.T, userID, username string) domain.Profile {
	t.Helper()
	p, err := domain.NewProfile(idx.New().String(), userID, username)
	require.NoError(t, err)
	p.CreatedAt = Clock
	p.UpdatedAt = Clock
	return p
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "frank@example.com")

	require.NoError(t, st.Users().CreateUser(ctx, u))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, domain.RoleUser, got.Role)
	require.True(t, got.CreatedAt.Equal(Clock))

	got, err = st.Users().GetUserByEmail(ctx, "frank@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = st.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := NewUser(t, "frank@example.com")
	err = st.Users().CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got.PasswordHash = "rehashed"
	got.UpdatedAt = Clock.Add(time.Minute)
	require.NoError(t, st.Users().UpdateUser(ctx, got))

	got, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "rehashed", got.PasswordHash)

	missing := NewUser(t, "ghost@example.com")
	require.ErrorIs(t, st.Users().UpdateUser(ctx, missing), store.ErrNotFound)
}

func testResetRequests(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "grace@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	_, err := u.RequestPasswordReset("tok-a", "", Clock)
	require.NoError(t, err)
	_, err = u.RequestPasswordReset("tok-b", "", Clock.Add(time.Minute))
	require.NoError(t, err)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateUser(ctx, u)
	})
	require.NoError(t, err)

	got, err := st.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Len(t, got.PasswordResets, 2)
	require.Equal(t, "tok-a", got.PasswordResets[0].Token)
	require.True(t, got.PasswordResets[0].At.Equal(Clock))
	require.Equal(t, "tok-b", got.PasswordResets[1].Token)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.Users().LockUserByResetToken(ctx, "tok-b")
		require.NoError(t, err)
		require.Equal(t, u.ID, locked.ID)

		locked, err = tx.Users().LockUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, locked.ID)

		_, err = tx.Users().LockUserByResetToken(ctx, "tok-z")
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	// Replacing the list drops consumed requests.
	got.PasswordResets = nil
	require.NoError(t, st.Users().UpdateUser(ctx, got))

	_, err = st.Users().LockUserByResetToken(ctx, "tok-a")
	require.ErrorIs(t, err, store.ErrNotFound)
}

// testConcurrentTokenRedemption checks that the row lock taken by
// LockUserByResetToken lets exactly one transaction consume a token.
func testConcurrentTokenRedemption(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "heidi@example.com")
	_, err := u.RequestPasswordReset("tok-once", "", Clock)
	require.NoError(t, err)
	require.NoError(t, st.Users().CreateUser(ctx, u))

	const workers = 8

	var (
		wg       sync.WaitGroup
		redeemed atomic.Int32
		missed   atomic.Int32
		start    = make(chan struct{})
		errs     = make(chan error, workers)
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := st.WithTx(ctx, func(tx store.Tx) error {
				locked, err := tx.Users().LockUserByResetToken(ctx, "tok-once")
				if errors.Is(err, store.ErrNotFound) {
					missed.Add(1)
					return nil
				}
				if err != nil {
					return err
				}

				locked.PasswordResets = nil
				if err := tx.Users().UpdateUser(ctx, locked); err != nil {
					return err
				}
				redeemed.Add(1)
				return nil
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, redeemed.Load())
	require.EqualValues(t, workers-1, missed.Load())

	got, err := st.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Empty(t, got.PasswordResets)
}

func testProfiles(t *testing.T, st store.Store) {
	ctx := context.Background()

	count, err := st.Profiles().CountProfiles(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	u := NewUser(t, "heidi@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	p := NewProfile(t, u.ID, "heidi")
	require.NoError(t, st.Profiles().CreateProfile(ctx, p))

	got, err := st.Profiles().GetProfileByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "heidi", got.Username)
	require.Nil(t, got.Bio)

	got, err = st.Profiles().GetProfileByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	got, err = st.Profiles().GetProfileByUsername(ctx, "HEIDI")
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	other := NewUser(t, "ivan@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, other))
	err = st.Profiles().CreateProfile(ctx, NewProfile(t, other.ID, "Heidi"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	bio := "likes gardening"
	got.Bio = &bio
	got.UpdatedAt = Clock.Add(time.Hour)
	require.NoError(t, st.Profiles().UpdateProfile(ctx, got))

	got, err = st.Profiles().GetProfileByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	require.Equal(t, bio, *got.Bio)

	_, err = st.Profiles().GetProfileByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	count, err = st.Profiles().CountProfiles(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func testOutbox(t *testing.T, st store.Store) {
	ctx := context.Background()

	first := outboxEntry(t, "corr-1", domain.UserCreated{ID: "u1", Email: "a@example.com", Role: "user"}, Clock)
	second := outboxEntry(t, "corr-1", domain.PasswordChanged{UserID: "u1", Datetime: Clock}, Clock.Add(time.Second))
	third := outboxEntry(t, "corr-2", domain.PasswordChanged{UserID: "u2", Datetime: Clock}, Clock.Add(time.Hour))

	err := st.WithTx(ctx, func(tx store.Tx) error {
		for _, e := range []domain.OutboxEntry{first, second, third} {
			if err := tx.Outbox().InsertEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entries, err := st.Outbox().ListByCorrelationID(ctx, "corr-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, first.ID, entries[0].ID)
	require.Equal(t, domain.EventUserCreated, entries[0].EventType)
	require.JSONEq(t, string(first.Payload), string(entries[0].Payload))
	require.Equal(t, second.ID, entries[1].ID)

	evt, err := entries[0].Event()
	require.NoError(t, err)
	created, ok := domain.AsUserCreated(evt)
	require.True(t, ok)
	require.Equal(t, "u1", created.ID)

	pending, err := st.Outbox().ListPending(ctx, Clock.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, st.Outbox().MarkDispatched(ctx, first.ID, Clock.Add(2*time.Second)))
	require.NoError(t, st.Outbox().MarkDispatched(ctx, first.ID, Clock.Add(time.Hour)))

	pending, err = st.Outbox().ListPending(ctx, Clock.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)

	entries, err = st.Outbox().ListByCorrelationID(ctx, "corr-1")
	require.NoError(t, err)
	require.NotNil(t, entries[0].DispatchedAt)
	require.True(t, entries[0].DispatchedAt.Equal(Clock.Add(2*time.Second)))

	require.ErrorIs(t, st.Outbox().MarkDispatched(ctx, "missing", Clock), store.ErrNotFound)
}

func testCommit(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "judy@example.com")

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Users().CreateUser(ctx, u))
	require.NoError(t, tx.Outbox().InsertEntry(ctx, outboxEntry(t, "corr-c", domain.UserCreated{ID: u.ID}, Clock)))
	require.NoError(t, tx.Commit())

	// Rollback after commit is harmless.
	require.NoError(t, tx.Rollback())

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)

	entries, err := st.Outbox().ListByCorrelationID(ctx, "corr-c")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func testRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "ken@example.com")

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Users().CreateUser(ctx, u))
	require.NoError(t, tx.Rollback())

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testWithTxError(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "leo@example.com")
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		if err := tx.Outbox().InsertEntry(ctx, outboxEntry(t, "corr-e", domain.UserCreated{ID: u.ID}, Clock)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	entries, err := st.Outbox().ListByCorrelationID(ctx, "corr-e")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func testWithTxPanic(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := NewUser(t, "mia@example.com")

	require.Panics(t, func() {
		_ = st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
			panic("handler bug")
		})
	})

	_, err := st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func outboxEntry(t *testing.T, correlationID string, e domain.Event, at time.Time) domain.OutboxEntry {
	t.Helper()
	entry, err := domain.NewOutboxEntry(idx.NewAt(at).String(), correlationID, e, at)
	require.NoError(t, err)
	return entry
}
