package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/observability"
)

type outboxRepo interface {
	ClaimPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error
}

// Dispatcher drains the notification outbox on a fixed interval. It is the
// only consumer of outbox rows; the settlement and intake paths only append.
type Dispatcher struct {
	outbox      outboxRepo
	channel     Channel
	logger      *slog.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewDispatcher(outbox outboxRepo, channel Channel, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, batchSize, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		outbox:      outbox,
		channel:     channel,
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			d.Poll(ctx)
		}
	}
}

// Poll delivers one batch. Exported so tests can drive the dispatcher
// without the ticker.
func (d *Dispatcher) Poll(ctx context.Context) {
	msgs, err := d.outbox.ClaimPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("failed to claim pending notifications", "error", err)
		return
	}

	for _, m := range msgs {
		d.deliver(ctx, m)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m domain.OutboxMessage) {
	err := d.channel.Send(ctx, Message{
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Body:      m.Body,
	})
	if err != nil {
		d.metrics.RecordNotification("failure")
		d.logger.Warn("notification delivery failed",
			"outbox_id", m.ID,
			"recipient", m.Recipient,
			"attempts", m.Attempts+1,
			"error", err,
		)
		if markErr := d.outbox.RecordFailure(ctx, m.ID, d.maxAttempts); markErr != nil {
			d.logger.Error("failed to record notification failure", "outbox_id", m.ID, "error", markErr)
		}
		return
	}

	d.metrics.RecordNotification("success")
	if markErr := d.outbox.MarkSent(ctx, m.ID); markErr != nil {
		d.logger.Error("failed to mark notification sent", "outbox_id", m.ID, "error", markErr)
	}
}
