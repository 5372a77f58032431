package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/core/internal/domain"
)

const accountColumns = `id, user_id, account_number, currency, status, balance, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return accounts, nil
}

// GetByUserAndNumber resolves the credit-leg target of an internal transfer.
// Both identifiers must match the journal row's recipient locator.
func (r *AccountRepository) GetByUserAndNumber(ctx context.Context, userID uuid.UUID, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND account_number = $2`,
		userID, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserAndNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUserAndNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, account_number, currency, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.UserID, account.AccountNumber, account.Currency,
		account.Status, account.Balance, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetForUpdateByUserAndNumber(ctx context.Context, tx *sql.Tx, userID uuid.UUID, accountNumber string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND account_number = $2 FOR UPDATE`,
		userID, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdateByUserAndNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdateByUserAndNumber: %w", err)
	}
	return a, nil
}

// DebitIfSufficient applies the conditional sender debit. Zero rows affected
// means another unit of work drained the balance after our unlocked read; the
// caller must surface that as a conflict, never assume success.
func (r *AccountRepository) DebitIfSufficient(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1`,
		amount, id,
	)
	if err != nil {
		return fmt.Errorf("DebitIfSufficient: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DebitIfSufficient: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("DebitIfSufficient: %w", domain.ErrConcurrentModification)
	}
	return nil
}

// Credit adds amount to a row the caller has already locked FOR UPDATE.
func (r *AccountRepository) Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
		amount, id,
	)
	if err != nil {
		return fmt.Errorf("Credit: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Credit: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Credit: %w", domain.ErrNotFound)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.AccountNumber, &a.Currency,
		&a.Status, &a.Balance, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
