package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/idx"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

// Publisher writes events to the outbox inside a transaction and dispatches
// them once the transaction has committed.
type Publisher struct {
	Outbox store.OutboxLog
	Events EventDispatcher
	Now    func() time.Time
}

func NewPublisher(outbox store.OutboxLog, events EventDispatcher) *Publisher {
	return &Publisher{Outbox: outbox, Events: events, Now: time.Now}
}

// Record appends e to the outbox of tx. The returned entry must only be
// passed to Publish after tx commits.
func (p *Publisher) Record(ctx context.Context, tx store.Tx, correlationID string, e domain.Event) (domain.OutboxEntry, error) {
	entry, err := domain.NewOutboxEntry(idx.New().String(), correlationID, e, p.Now().UTC())
	if err != nil {
		return domain.OutboxEntry{}, unexpected("encode event", err)
	}
	if err := tx.Outbox().InsertEntry(ctx, entry); err != nil {
		return domain.OutboxEntry{}, err
	}
	return entry, nil
}

// Publish delivers committed entries in order. Failures are logged and left
// pending for the relay; the caller's request has already succeeded.
func (p *Publisher) Publish(ctx context.Context, entries []domain.OutboxEntry) {
	// The write is durable; a client hanging up must not abort delivery.
	ctx = context.WithoutCancel(ctx)
	log := slogx.FromContext(ctx)

	for _, entry := range entries {
		if err := p.Deliver(ctx, entry); err != nil {
			log.Error("event dispatch failed, left for relay",
				slog.String("outbox_id", entry.ID),
				slog.String("event_type", string(entry.EventType)),
				slog.String("correlation_id", entry.CorrelationID),
				slog.Any("error", err),
			)
		}
	}
}

// Deliver dispatches one entry and marks it dispatched if every handler
// succeeded.
func (p *Publisher) Deliver(ctx context.Context, entry domain.OutboxEntry) error {
	event, err := entry.Event()
	if err != nil {
		return err
	}
	if err := p.Events.Dispatch(ctx, event); err != nil {
		return err
	}
	return p.Outbox.MarkDispatched(ctx, entry.ID, p.Now().UTC())
}
