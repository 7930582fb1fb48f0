package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
)

// outboxRepo serves both the transactional writer and the relay reader.
type outboxRepo struct {
	q dbtx
}

const selectOutbox = `
SELECT id, correlation_id, event_type, payload, inserted_at, dispatched_at
FROM outbox`

func (r *outboxRepo) InsertEntry(ctx context.Context, e domain.OutboxEntry) error {
	_, err := r.q.ExecContext(ctx, `
INSERT INTO outbox (id, correlation_id, event_type, payload, inserted_at)
VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.CorrelationID, string(e.EventType), e.Payload, utc(e.InsertedAt),
	)
	return mapWriteError("outbox.insert", err)
}

func (r *outboxRepo) ListByCorrelationID(ctx context.Context, correlationID string) ([]domain.OutboxEntry, error) {
	return r.list(ctx, "outbox.list_by_correlation_id",
		selectOutbox+` WHERE correlation_id = ? ORDER BY id`, correlationID)
}

func (r *outboxRepo) ListPending(ctx context.Context, before time.Time, limit int) ([]domain.OutboxEntry, error) {
	return r.list(ctx, "outbox.list_pending",
		selectOutbox+` WHERE dispatched_at IS NULL AND inserted_at < ? ORDER BY id LIMIT ?`,
		utc(before), limit)
}

func (r *outboxRepo) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE outbox SET dispatched_at = COALESCE(dispatched_at, ?) WHERE id = ?`,
		utc(at), id,
	)
	if err != nil {
		return mapWriteError("outbox.mark_dispatched", err)
	}
	return requireAffected("outbox.mark_dispatched", res)
}

func (r *outboxRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.OutboxEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapNotFound(op, err)
	}
	defer rows.Close()

	var out []domain.OutboxEntry
	for rows.Next() {
		var (
			e            domain.OutboxEntry
			eventType    string
			dispatchedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.CorrelationID, &eventType, &e.Payload, &e.InsertedAt, &dispatchedAt); err != nil {
			return nil, mapNotFound(op, err)
		}
		e.EventType = domain.EventType(eventType)
		e.InsertedAt = e.InsertedAt.UTC()
		e.DispatchedAt = mapNullTimePtr(dispatchedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapNotFound(op, err)
	}
	return out, nil
}
