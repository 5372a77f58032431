package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/domain"
)

const approvalColumns = `id, transaction_id, admin_id, status, reason, created_at`

// ApprovalRepository holds the append-only administrative audit trail.
type ApprovalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.TransferApproval) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfer_approvals (id, transaction_id, admin_id, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.TransactionID, a.AdminID, a.Status, a.Reason, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ApprovalRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.TransferApproval, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+approvalColumns+` FROM transfer_approvals
		WHERE transaction_id = $1 ORDER BY created_at`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	defer rows.Close()

	var approvals []domain.TransferApproval
	for rows.Next() {
		var a domain.TransferApproval
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.AdminID, &a.Status, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByTransactionID: scan: %w", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByTransactionID: rows: %w", err)
	}
	return approvals, nil
}
