package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianbank/core/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, email, name string, preferred domain.Currency, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		PasswordHash:      string(hash),
		PreferredCurrency: preferred,
		Role:              role,
		Status:            domain.UserStatusActive,
		CreatedAt:         time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, preferred_currency, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.PreferredCurrency, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedAccount(t *testing.T, db *sql.DB, userID uuid.UUID, currency domain.Currency, balance string) *domain.Account {
	t.Helper()

	bal, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance %q: %v", balance, err)
	}
	a := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: fmt.Sprintf("%010d", rand.Int63n(1e10)),
		Currency:      currency,
		Status:        domain.AccountStatusActive,
		Balance:       bal,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO accounts (id, user_id, account_number, currency, status, balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.AccountNumber, a.Currency, a.Status, a.Balance, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", userID, currency, err)
	}
	return a
}

func FreezeAccount(t *testing.T, db *sql.DB, accountID uuid.UUID) {
	t.Helper()

	if _, err := db.Exec(`UPDATE accounts SET status = 'frozen' WHERE id = $1`, accountID); err != nil {
		t.Fatalf("freeze account %s: %v", accountID, err)
	}
}

func GetBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", accountID, err)
	}
	return balance
}

func GetTransferStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.TransferStatus {
	t.Helper()

	var status domain.TransferStatus
	err := db.QueryRow(`SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	if err != nil {
		t.Fatalf("get transfer status %s: %v", id, err)
	}
	return status
}

func CountTransfersByReference(t *testing.T, db *sql.DB, reference string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE reference = $1`, reference).Scan(&count)
	if err != nil {
		t.Fatalf("count transfers %s: %v", reference, err)
	}
	return count
}

func CountOutboxMessages(t *testing.T, db *sql.DB, recipient string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM notification_outbox WHERE recipient = $1`, recipient).Scan(&count)
	if err != nil {
		t.Fatalf("count outbox messages for %s: %v", recipient, err)
	}
	return count
}

func CountApprovals(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transfer_approvals WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count approvals %s: %v", transactionID, err)
	}
	return count
}
