package domain

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage is a notification queued inside the same transaction as the
// financial mutation it announces. The dispatcher delivers it after commit;
// delivery failure never reaches back into the ledger.
type OutboxMessage struct {
	ID            uuid.UUID
	Recipient     string
	Subject       string
	Body          string
	Status        OutboxStatus
	Attempts      int
	LastAttemptAt *time.Time
	CreatedAt     time.Time
}
