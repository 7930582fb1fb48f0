package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/internal/profiles/store/drivers/sqlite"
	"github.com/aussiebroadwan/profiles/internal/profiles/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestStore(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	// A profile must belong to an existing user.
	p := storetest.NewProfile(t, "no-such-user", "orphan")
	err := st.Profiles().CreateProfile(ctx, p)
	require.Error(t, err)
	require.ErrorIs(t, err, store.ErrUnexpected)
}

func TestBeginReportsExhaustedConnection(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.NewStore(":memory:", sqlite.WithAcquireTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	held, err := st.Begin(ctx)
	require.NoError(t, err)

	_, err = st.Begin(ctx)
	require.ErrorIs(t, err, store.ErrConnectionExhausted)

	// The connection goes back to the pool when the holder finishes.
	require.NoError(t, held.Rollback())
	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func TestBeginKeepsCallerDeadline(t *testing.T) {
	st, err := sqlite.NewStore(":memory:", sqlite.WithAcquireTimeout(time.Minute))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	t.Run("already expired", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
		defer cancel()

		_, err := st.Begin(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotErrorIs(t, err, store.ErrConnectionExhausted)
	})

	t.Run("expires while waiting", func(t *testing.T) {
		held, err := st.Begin(context.Background())
		require.NoError(t, err)
		defer func() { _ = held.Rollback() }()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = st.Begin(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotErrorIs(t, err, store.ErrConnectionExhausted)
	})
}
