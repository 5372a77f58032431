package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/core/internal/config"
	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/observability"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	GetForUpdateByUserAndNumber(ctx context.Context, tx *sql.Tx, userID uuid.UUID, accountNumber string) (*domain.Account, error)
	DebitIfSufficient(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error
}

type journalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error)
	TransitionStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.TransferStatus, adminComment *string, completedAt *time.Time) error
	ListByStatus(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
}

type approvalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.TransferApproval) error
}

type outboxRepo interface {
	Create(ctx context.Context, tx *sql.Tx, m *domain.OutboxMessage) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Service is the settlement engine: transfer intake plus the disposition of
// pending transfers. Every financial mutation runs as a single local
// transaction; notifications only ever ride along as outbox appends.
type Service struct {
	accounts  accountRepo
	journal   journalRepo
	approvals approvalRepo
	outbox    outboxRepo
	users     userRepo
	db        *sql.DB
	config    *config.Config
	metrics   *observability.Metrics
}

func NewService(
	accounts accountRepo,
	journal journalRepo,
	approvals approvalRepo,
	outbox outboxRepo,
	users userRepo,
	db *sql.DB,
	cfg *config.Config,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		accounts:  accounts,
		journal:   journal,
		approvals: approvals,
		outbox:    outbox,
		users:     users,
		db:        db,
		config:    cfg,
		metrics:   metrics,
	}
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.journal.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return t, nil
}

// GetTransactionForUser scopes reads to rows the caller participates in,
// as sender or as recipient of a credit leg.
func (s *Service) GetTransactionForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.journal.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionForUser: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("GetTransactionForUser: %w", domain.ErrNotFound)
	}
	return t, nil
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	txns, err := s.journal.ListByStatus(ctx, domain.TransferStatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return txns, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	txns, err := s.journal.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", err)
	}
	return txns, nil
}

func (s *Service) queueNotification(ctx context.Context, tx *sql.Tx, recipient, subject, body string) error {
	msg := &domain.OutboxMessage{
		ID:        uuid.New(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.outbox.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("queueNotification: %w", err)
	}
	return nil
}
