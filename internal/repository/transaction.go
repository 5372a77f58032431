package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/meridianbank/core/internal/domain"
)

const transactionColumns = `id, reference, user_id, account_id, amount, currency, type,
	description, status, initiated_at, completed_at,
	recipient_name, recipient_account_number, recipient_user_id,
	recipient_iban, recipient_swift_bic, recipient_sort_code,
	recipient_external_account_number, recipient_routing_number,
	recipient_bank_name, recipient_country,
	sender_name, sender_account_number, sender_user_id,
	converted_amount, converted_currency, exchange_rate,
	external_bank_details, admin_comment`

// TransactionRepository is the journal. Rows are immutable once written
// except for the guarded status transition.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, reference, user_id, account_id, amount, currency, type,
			description, status, initiated_at, completed_at,
			recipient_name, recipient_account_number, recipient_user_id,
			recipient_iban, recipient_swift_bic, recipient_sort_code,
			recipient_external_account_number, recipient_routing_number,
			recipient_bank_name, recipient_country,
			sender_name, sender_account_number, sender_user_id,
			converted_amount, converted_currency, exchange_rate,
			external_bank_details, admin_comment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26, $27, $28, $29
		)`,
		t.ID, t.Reference, t.UserID, t.AccountID, t.Amount, t.Currency, t.Type,
		t.Description, t.Status, t.InitiatedAt, t.CompletedAt,
		t.RecipientName, t.RecipientAccountNumber, t.RecipientUserID,
		t.RecipientIBAN, t.RecipientSwiftBIC, t.RecipientSortCode,
		t.RecipientExternalAcctNo, t.RecipientRoutingNumber,
		t.RecipientBankName, t.RecipientCountry,
		t.SenderName, t.SenderAccountNumber, t.SenderUserID,
		t.ConvertedAmount, t.ConvertedCurrency, t.ExchangeRate,
		nullableJSON(t.ExternalBankDetails), t.AdminComment,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("Create: reference collision: %w", domain.ErrConcurrentModification)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUpdate locks the journal row for the duration of a settlement unit
// of work, serializing concurrent dispositions of the same transaction.
func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 ORDER BY initiated_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	return collectTransactions(rows, "ListByUser")
}

func (r *TransactionRepository) ListByStatus(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE status = $1 ORDER BY initiated_at LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return collectTransactions(rows, "ListByStatus")
}

// TransitionStatus performs the one-directional status move. The WHERE clause
// pins the expected current status; zero rows affected means another
// disposition won the race and the caller must report ErrAlreadyProcessed.
func (r *TransactionRepository) TransitionStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.TransferStatus, adminComment *string, completedAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		SET status = $1, completed_at = $2, admin_comment = COALESCE($3, admin_comment)
		WHERE id = $4 AND status = $5`,
		to, completedAt, adminComment, id, from,
	)
	if err != nil {
		return fmt.Errorf("TransitionStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("TransitionStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("TransitionStatus: %w", domain.ErrAlreadyProcessed)
	}
	return nil
}

func collectTransactions(rows *sql.Rows, op string) ([]domain.Transaction, error) {
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var recipientUserID uuid.NullUUID
	var details *[]byte

	err := s.Scan(
		&t.ID, &t.Reference, &t.UserID, &t.AccountID, &t.Amount, &t.Currency, &t.Type,
		&t.Description, &t.Status, &t.InitiatedAt, &t.CompletedAt,
		&t.RecipientName, &t.RecipientAccountNumber, &recipientUserID,
		&t.RecipientIBAN, &t.RecipientSwiftBIC, &t.RecipientSortCode,
		&t.RecipientExternalAcctNo, &t.RecipientRoutingNumber,
		&t.RecipientBankName, &t.RecipientCountry,
		&t.SenderName, &t.SenderAccountNumber, &t.SenderUserID,
		&t.ConvertedAmount, &t.ConvertedCurrency, &t.ExchangeRate,
		&details, &t.AdminComment,
	)
	if err != nil {
		return nil, err
	}

	if recipientUserID.Valid {
		t.RecipientUserID = &recipientUserID.UUID
	}
	if details != nil {
		t.ExternalBankDetails = *details
	}

	return &t, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
