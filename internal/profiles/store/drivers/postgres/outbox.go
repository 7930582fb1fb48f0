package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/jackc/pgx/v5"
)

// outboxRepo serves both the transactional writer and the relay reader.
type outboxRepo struct {
	q querier
}

const selectOutbox = `
SELECT id, correlation_id, event_type, payload, inserted_at, dispatched_at
FROM outbox`

func (r *outboxRepo) InsertEntry(ctx context.Context, e domain.OutboxEntry) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO outbox (id, correlation_id, event_type, payload, inserted_at)
VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.CorrelationID, string(e.EventType), e.Payload, e.InsertedAt.UTC(),
	)
	return mapWriteError("outbox.insert", err)
}

func (r *outboxRepo) ListByCorrelationID(ctx context.Context, correlationID string) ([]domain.OutboxEntry, error) {
	return r.list(ctx, "outbox.list_by_correlation_id",
		selectOutbox+` WHERE correlation_id = $1 ORDER BY id`, correlationID)
}

func (r *outboxRepo) ListPending(ctx context.Context, before time.Time, limit int) ([]domain.OutboxEntry, error) {
	return r.list(ctx, "outbox.list_pending",
		selectOutbox+` WHERE dispatched_at IS NULL AND inserted_at < $1 ORDER BY id LIMIT $2`,
		before.UTC(), limit)
}

func (r *outboxRepo) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE outbox SET dispatched_at = COALESCE(dispatched_at, $1) WHERE id = $2`,
		at.UTC(), id,
	)
	if err != nil {
		return mapWriteError("outbox.mark_dispatched", err)
	}
	return requireAffected(tag)
}

func (r *outboxRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.OutboxEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapNotFound(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OutboxEntry, error) {
		var (
			e         domain.OutboxEntry
			eventType string
		)
		err := row.Scan(&e.ID, &e.CorrelationID, &eventType, &e.Payload, &e.InsertedAt, &e.DispatchedAt)
		e.EventType = domain.EventType(eventType)
		e.InsertedAt = e.InsertedAt.UTC()
		e.DispatchedAt = utcPtr(e.DispatchedAt)
		return e, err
	})
	if err != nil {
		return nil, mapNotFound(op, err)
	}
	return out, nil
}
