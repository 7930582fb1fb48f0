package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

const (
	defaultRelayInterval = 30 * time.Second
	defaultRelayGrace    = time.Minute
	defaultRelayBatch    = 100
)

// OutboxRelay periodically re-dispatches outbox entries that were committed
// but never marked dispatched, e.g. because a handler failed or the process
// stopped between commit and dispatch.
type OutboxRelay struct {
	Publisher *Publisher
	Logger    *slog.Logger
	Interval  time.Duration

	// Grace keeps the relay away from entries the request path is still
	// dispatching.
	Grace     time.Duration
	BatchSize int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewOutboxRelay creates a relay. Zero or negative settings fall back to
// defaults.
func NewOutboxRelay(publisher *Publisher, logger *slog.Logger, interval, grace time.Duration, batch int) *OutboxRelay {
	if interval <= 0 {
		interval = defaultRelayInterval
	}
	if grace <= 0 {
		grace = defaultRelayGrace
	}
	if batch <= 0 {
		batch = defaultRelayBatch
	}

	return &OutboxRelay{
		Publisher: publisher,
		Logger:    logger,
		Interval:  interval,
		Grace:     grace,
		BatchSize: batch,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the relay loop in the background until Stop is called.
func (r *OutboxRelay) Start() {
	go r.run()
	r.Logger.Info("outbox relay started", "interval", r.Interval, "grace", r.Grace)
}

// Stop blocks until an in-progress pass has finished.
func (r *OutboxRelay) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("outbox relay stopped")
}

func (r *OutboxRelay) run() {
	defer close(r.doneCh)

	// Event handlers log through the context logger.
	ctx := slogx.WithContext(context.Background(), r.Logger)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.Logger.Error("outbox relay pass failed", "error", err)
			}
		case <-r.stopCh:
			return
		}
	}
}

// RunOnce delivers one batch of pending entries and returns how many were
// delivered. A failing entry is logged and retried on a later pass.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	before := r.Publisher.Now().UTC().Add(-r.Grace)
	entries, err := r.Publisher.Outbox.ListPending(ctx, before, r.BatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range entries {
		if err := r.Publisher.Deliver(ctx, entry); err != nil {
			r.Logger.Warn("outbox entry redelivery failed",
				"outbox_id", entry.ID,
				"event_type", string(entry.EventType),
				"correlation_id", entry.CorrelationID,
				"error", err,
			)
			continue
		}
		delivered++
	}

	if len(entries) > 0 {
		r.Logger.Info("outbox relay pass completed", "pending", len(entries), "delivered", delivered)
	}
	return delivered, nil
}
