package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/logging"
)

// Disposition is an administrative action on a pending or in-flight
// transfer. The set is closed; Settle rejects anything else.
type Disposition string

const (
	DispositionComplete Disposition = "complete"
	DispositionDecline  Disposition = "decline"
	DispositionDeliver  Disposition = "deliver"
	DispositionFail     Disposition = "fail"
)

type SettleRequest struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Disposition   Disposition
	Reason        string
}

// Settle applies one administrative disposition to a transfer. Each
// disposition runs as a single local transaction; the guarded status
// transition makes concurrent settlement of the same row a no-op for the
// loser, surfaced as ErrAlreadyProcessed.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	var (
		txn *domain.Transaction
		err error
	)
	switch req.Disposition {
	case DispositionComplete:
		txn, err = s.complete(ctx, req)
	case DispositionDecline:
		txn, err = s.decline(ctx, req)
	case DispositionDeliver:
		txn, err = s.finalizeExternal(ctx, req, domain.TransferStatusDelivered)
	case DispositionFail:
		txn, err = s.finalizeExternal(ctx, req, domain.TransferStatusFailed)
	default:
		err = fmt.Errorf("Settle: unknown disposition %q: %w", req.Disposition, domain.ErrInvalidDisposition)
	}

	outcome := "ok"
	if err != nil {
		outcome = settleOutcome(err)
	}
	s.metrics.RecordSettlement(string(req.Disposition), outcome, time.Since(start))

	if err != nil {
		return nil, err
	}
	log.Info("transfer settled",
		"transaction_id", txn.ID,
		"reference", txn.Reference,
		"disposition", req.Disposition,
		"status", txn.Status,
	)
	return txn, nil
}

// complete approves a pending transfer. For internal types it credits the
// recipient and journals an independent credit-leg row; for external types
// it only advances the status, handing the row to the delivery stage.
func (s *Service) complete(ctx context.Context, req SettleRequest) (*domain.Transaction, error) {
	// Unlocked pre-read gives the sender/recipient identities for
	// notifications without holding row locks across user lookups.
	peek, err := s.journal.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	sender, err := s.users.GetByID(ctx, peek.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	var recipient *domain.User
	if peek.RecipientUserID != nil {
		recipient, err = s.users.GetByID(ctx, *peek.RecipientUserID)
		if err != nil {
			return nil, fmt.Errorf("complete: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("complete: begin tx: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.lockPending(ctx, tx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	now := time.Now().UTC()

	if txn.Type.Internal() {
		if txn.RecipientUserID == nil || txn.RecipientAccountNumber == nil {
			return nil, fmt.Errorf("complete: journal row %s lacks internal recipient: %w", txn.ID, domain.ErrInvalidRecipientDetails)
		}
		dest, err := s.accounts.GetForUpdateByUserAndNumber(ctx, tx, *txn.RecipientUserID, *txn.RecipientAccountNumber)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("complete: %w", domain.ErrRecipientAccountNotFound)
			}
			return nil, fmt.Errorf("complete: %w", err)
		}
		if dest.Status != domain.AccountStatusActive {
			return nil, fmt.Errorf("complete: %w", domain.ErrRecipientAccountNotFound)
		}
		// A drifted recipient currency is fatal for this disposition; the
		// row stays PENDING and an operator must decline or fix the account.
		if dest.Currency != txn.Currency {
			return nil, fmt.Errorf("complete: recipient account is %s, transfer is %s: %w",
				dest.Currency, txn.Currency, domain.ErrCurrencyMismatch)
		}

		if err := s.accounts.Credit(ctx, tx, dest.ID, txn.Amount); err != nil {
			return nil, fmt.Errorf("complete: %w", err)
		}

		creditLeg := buildCreditLeg(txn, dest, now)
		if err := s.journal.Create(ctx, tx, creditLeg); err != nil {
			return nil, fmt.Errorf("complete: %w", err)
		}
	}

	if err := s.journal.TransitionStatus(ctx, tx, txn.ID,
		domain.TransferStatusPending, domain.TransferStatusCompleted, nil, &now); err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	if err := s.recordApproval(ctx, tx, req, domain.TransferStatusCompleted); err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	body := fmt.Sprintf("Your transfer of %s %s to %s has been approved. Reference: %s.",
		txn.Amount.StringFixed(2), txn.Currency, txn.RecipientName, txn.Reference)
	if err := s.queueNotification(ctx, tx, sender.Email, "Transfer approved", body); err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	if recipient != nil {
		body := fmt.Sprintf("You have received %s %s from %s. Reference: %s.",
			txn.Amount.StringFixed(2), txn.Currency, txn.SenderName, creditLegReference(txn.Reference))
		if err := s.queueNotification(ctx, tx, recipient.Email, "Funds received", body); err != nil {
			return nil, fmt.Errorf("complete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("complete: commit: %w", err)
	}

	txn.Status = domain.TransferStatusCompleted
	txn.CompletedAt = &now
	return txn, nil
}

// decline rejects a pending transfer and refunds the debit exactly. The
// refund credits the original source account unconditionally; balance floors
// do not apply to money coming back.
func (s *Service) decline(ctx context.Context, req SettleRequest) (*domain.Transaction, error) {
	peek, err := s.journal.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}
	sender, err := s.users.GetByID(ctx, peek.UserID)
	if err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("decline: begin tx: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.lockPending(ctx, tx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}

	source, err := s.accounts.GetForUpdate(ctx, tx, txn.AccountID)
	if err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}
	if source.Currency != txn.Currency {
		return nil, fmt.Errorf("decline: source account is %s, transfer is %s: %w",
			source.Currency, txn.Currency, domain.ErrCurrencyMismatch)
	}

	if err := s.accounts.Credit(ctx, tx, source.ID, txn.Amount); err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}

	now := time.Now().UTC()
	var comment *string
	if req.Reason != "" {
		comment = &req.Reason
	}
	if err := s.journal.TransitionStatus(ctx, tx, txn.ID,
		domain.TransferStatusPending, domain.TransferStatusDeclined, comment, &now); err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}
	if err := s.recordApproval(ctx, tx, req, domain.TransferStatusDeclined); err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}

	body := fmt.Sprintf("Your transfer of %s %s to %s was declined and the funds returned to your account. Reference: %s.",
		txn.Amount.StringFixed(2), txn.Currency, txn.RecipientName, txn.Reference)
	if req.Reason != "" {
		body = fmt.Sprintf("%s Reason: %s.", body, req.Reason)
	}
	if err := s.queueNotification(ctx, tx, sender.Email, "Transfer declined", body); err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("decline: commit: %w", err)
	}

	txn.Status = domain.TransferStatusDeclined
	txn.CompletedAt = &now
	txn.AdminComment = comment
	return txn, nil
}

// finalizeExternal records the delivery outcome of an approved external
// transfer. No ledger movement happens here; the debit already settled at
// completion and a failed delivery is reconciled out of band.
func (s *Service) finalizeExternal(ctx context.Context, req SettleRequest, to domain.TransferStatus) (*domain.Transaction, error) {
	peek, err := s.journal.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}
	if !peek.Type.External() {
		return nil, fmt.Errorf("finalizeExternal: %s transfers have no delivery stage: %w", peek.Type, domain.ErrInvalidDisposition)
	}
	sender, err := s.users.GetByID(ctx, peek.UserID)
	if err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("finalizeExternal: begin tx: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.journal.GetForUpdate(ctx, tx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}
	if txn.Status != domain.TransferStatusCompleted {
		return nil, fmt.Errorf("finalizeExternal: status is %s: %w", txn.Status, domain.ErrAlreadyProcessed)
	}

	now := time.Now().UTC()
	var comment *string
	if req.Reason != "" {
		comment = &req.Reason
	}
	if err := s.journal.TransitionStatus(ctx, tx, txn.ID,
		domain.TransferStatusCompleted, to, comment, &now); err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}
	if err := s.recordApproval(ctx, tx, req, to); err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}

	subject := "Transfer delivered"
	body := fmt.Sprintf("Your transfer of %s %s to %s has been delivered. Reference: %s.",
		txn.Amount.StringFixed(2), txn.Currency, txn.RecipientName, txn.Reference)
	if to == domain.TransferStatusFailed {
		subject = "Transfer failed"
		body = fmt.Sprintf("Your transfer of %s %s to %s could not be delivered. Our team will contact you. Reference: %s.",
			txn.Amount.StringFixed(2), txn.Currency, txn.RecipientName, txn.Reference)
	}
	if err := s.queueNotification(ctx, tx, sender.Email, subject, body); err != nil {
		return nil, fmt.Errorf("finalizeExternal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("finalizeExternal: commit: %w", err)
	}

	txn.Status = to
	txn.AdminComment = comment
	return txn, nil
}

// lockPending locks a journal row and verifies it is still PENDING. A row
// in any other status means another settlement already won.
func (s *Service) lockPending(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.journal.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("lockPending: %w", err)
	}
	if txn.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("lockPending: status is %s: %w", txn.Status, domain.ErrAlreadyProcessed)
	}
	return txn, nil
}

func (s *Service) recordApproval(ctx context.Context, tx *sql.Tx, req SettleRequest, status domain.TransferStatus) error {
	approval := &domain.TransferApproval{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		AdminID:       req.AdminID,
		Status:        status,
		Reason:        req.Reason,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.approvals.Create(ctx, tx, approval); err != nil {
		return fmt.Errorf("recordApproval: %w", err)
	}
	return nil
}

// buildCreditLeg derives the recipient-side journal row of an internal
// transfer. It is an independent row with its own id, referencing the
// original through the shared reference prefix, and is born COMPLETED.
func buildCreditLeg(original *domain.Transaction, dest *domain.Account, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		Reference:   creditLegReference(original.Reference),
		UserID:      dest.UserID,
		AccountID:   dest.ID,
		Amount:      original.Amount,
		Currency:    original.Currency,
		Type:        domain.TransferTypeInternalIn,
		Description: original.Description,
		Status:      domain.TransferStatusCompleted,
		InitiatedAt: original.InitiatedAt,
		CompletedAt: &now,

		RecipientName:          original.RecipientName,
		RecipientAccountNumber: original.RecipientAccountNumber,
		RecipientUserID:        original.RecipientUserID,

		SenderName:          original.SenderName,
		SenderAccountNumber: original.SenderAccountNumber,
		SenderUserID:        original.SenderUserID,

		ConvertedAmount:   original.ConvertedAmount,
		ConvertedCurrency: original.ConvertedCurrency,
		ExchangeRate:      original.ExchangeRate,
	}
}

func settleOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrRecipientAccountNotFound):
		return "recipient_account_not_found"
	case errors.Is(err, domain.ErrInvalidDisposition):
		return "invalid_disposition"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
