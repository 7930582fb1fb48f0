package eventx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/profiles/pkg/eventx"
	"github.com/stretchr/testify/require"
)

type event interface{ kind() string }

type created struct{ ID string }
type deleted struct{ ID string }

func (created) kind() string { return "created" }
func (deleted) kind() string { return "deleted" }

func asCreated(e event) (created, bool) {
	v, ok := e.(created)
	return v, ok
}

func asDeleted(e event) (deleted, bool) {
	v, ok := e.(deleted)
	return v, ok
}

type state struct{ calls []string }

func topicOf(e event) string { return e.kind() }

func TestDispatchRoutesByTopic(t *testing.T) {
	st := &state{}

	r := eventx.New(st, topicOf,
		eventx.Handle("audit", "created", asCreated, func(_ context.Context, s *state, p created) error {
			s.calls = append(s.calls, "audit:"+p.ID)
			return nil
		}),
		eventx.Handle("index", "created", asCreated, func(_ context.Context, s *state, p created) error {
			s.calls = append(s.calls, "index:"+p.ID)
			return nil
		}),
		eventx.Handle("purge", "deleted", asDeleted, func(_ context.Context, s *state, p deleted) error {
			s.calls = append(s.calls, "purge:"+p.ID)
			return nil
		}),
	)

	require.NoError(t, r.Dispatch(context.Background(), created{ID: "1"}))
	require.Equal(t, []string{"audit:1", "index:1"}, st.calls)

	st.calls = nil
	require.NoError(t, r.Dispatch(context.Background(), deleted{ID: "2"}))
	require.Equal(t, []string{"purge:2"}, st.calls)

	require.Equal(t, 2, r.Subscribers("created"))
	require.Equal(t, 0, r.Subscribers("renamed"))
}

func TestUnroutedRegistrationIsNeverInvoked(t *testing.T) {
	st := &state{}

	var idle eventx.Registration[string, event, *state]
	_, ok := idle.Topic()
	require.False(t, ok)

	r := eventx.New(st, topicOf, idle)
	require.NoError(t, r.Dispatch(context.Background(), created{ID: "1"}))
	require.Equal(t, 0, r.Subscribers(""))
}

func TestDispatchJoinsHandlerErrors(t *testing.T) {
	st := &state{}
	first := errors.New("first")
	second := errors.New("second")

	r := eventx.New(st, topicOf,
		eventx.Handle("a", "created", asCreated, func(context.Context, *state, created) error { return first }),
		eventx.Handle("b", "created", asCreated, func(_ context.Context, s *state, _ created) error {
			s.calls = append(s.calls, "b")
			return nil
		}),
		eventx.Handle("c", "created", asCreated, func(context.Context, *state, created) error { return second }),
	)

	err := r.Dispatch(context.Background(), created{ID: "1"})
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.Equal(t, []string{"b"}, st.calls)
}

func TestProjectionMismatchPanics(t *testing.T) {
	// Subscribed to "created" but projects to deleted: a wiring bug.
	r := eventx.New(&state{}, topicOf,
		eventx.Handle("broken", "created", asDeleted, func(context.Context, *state, deleted) error { return nil }),
	)

	require.Panics(t, func() {
		_ = r.Dispatch(context.Background(), created{ID: "1"})
	})
}

func TestDispatchStopsOnCancelledContext(t *testing.T) {
	st := &state{}
	r := eventx.New(st, topicOf,
		eventx.Handle("audit", "created", asCreated, func(_ context.Context, s *state, _ created) error {
			s.calls = append(s.calls, "audit")
			return nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.Dispatch(ctx, created{ID: "1"}), context.Canceled)
	require.Empty(t, st.calls)
}
