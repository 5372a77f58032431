package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/domain"
)

const outboxColumns = `id, recipient, subject, body, status, attempts, last_attempt_at, created_at`

// OutboxRepository stores notifications appended inside financial
// transactions and consumed by the dispatcher after commit.
type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Create(ctx context.Context, tx *sql.Tx, m *domain.OutboxMessage) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO notification_outbox (id, recipient, subject, body, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Recipient, m.Subject, m.Body, m.Status, m.Attempts, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ClaimPending picks up undelivered messages, skipping rows another
// dispatcher instance already holds.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM notification_outbox
		WHERE status = 'pending' ORDER BY created_at LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimPending: %w", err)
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Status, &m.Attempts, &m.LastAttemptAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ClaimPending: scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimPending: rows: %w", err)
	}
	return msgs, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_outbox
		SET status = 'sent', attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

// RecordFailure bumps the attempt counter; the row flips to failed once the
// attempt budget is spent, otherwise it stays pending for the next poll.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
		WHERE id = $3`,
		time.Now().UTC(), maxAttempts, id,
	)
	if err != nil {
		return fmt.Errorf("RecordFailure: %w", err)
	}
	return nil
}
