package transfer_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/core/internal/config"
	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/repository"
	"github.com/meridianbank/core/internal/service/transfer"
	"github.com/meridianbank/core/internal/testutil"
)

func setupTransferService(t *testing.T, db *sql.DB) *transfer.Service {
	t.Helper()
	return transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewApprovalRepository(db),
		repository.NewOutboxRepository(db),
		repository.NewUserRepository(db),
		db,
		&config.Config{AllowedTransferCurrencies: []string{"USD", "EUR", "GBP"}},
		nil,
	)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestInitiate_InternalHappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "sender@test.com", "Sender", domain.CurrencyUSD, domain.UserRoleCustomer)
	recipient := testutil.SeedUser(t, db, "recipient@test.com", "Recipient", domain.CurrencyUSD, domain.UserRoleCustomer)
	senderAcct := testutil.SeedAccount(t, db, sender.ID, domain.CurrencyUSD, "1000.00")
	recipientAcct := testutil.SeedAccount(t, db, recipient.ID, domain.CurrencyUSD, "500.00")

	txn, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         sender.ID,
		SourceAccountID: senderAcct.ID,
		Method:          transfer.MethodInternal,
		Amount:          "250.50",
		Description:     "rent share",
		Recipient: transfer.Recipient{
			Name:          "Recipient",
			AccountNumber: recipientAcct.AccountNumber,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusPending, txn.Status)
	assert.Equal(t, domain.TransferTypeInternalOut, txn.Type)
	assert.True(t, txn.Amount.Equal(dec(t, "250.50")))
	assert.Regexp(t, `^TRF-\d{14}-[0-9A-F]{8}$`, txn.Reference)
	require.NotNil(t, txn.RecipientUserID)
	assert.Equal(t, recipient.ID, *txn.RecipientUserID)

	// Debit is immediate; the recipient sees nothing until settlement.
	assert.True(t, testutil.GetBalance(t, db, senderAcct.ID).Equal(dec(t, "749.50")))
	assert.True(t, testutil.GetBalance(t, db, recipientAcct.ID).Equal(dec(t, "500.00")))

	assert.Equal(t, domain.TransferStatusPending, testutil.GetTransferStatus(t, db, txn.ID))
	assert.Equal(t, 1, testutil.CountOutboxMessages(t, db, sender.Email))
	assert.Equal(t, 0, testutil.CountOutboxMessages(t, db, recipient.Email))
}

func TestInitiate_SelfTransfer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	from := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "300.00")
	to := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "0.00")

	txn, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: from.ID,
		Method:          transfer.MethodSelf,
		Amount:          "100.00",
		Recipient:       transfer.Recipient{Name: "Owner", AccountNumber: to.AccountNumber},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransferTypeSelfInternalOut, txn.Type)
	assert.True(t, testutil.GetBalance(t, db, from.ID).Equal(dec(t, "200.00")))
}

func TestInitiate_SelfTransferSameAccountRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "300.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodSelf,
		Amount:          "100.00",
		Recipient:       transfer.Recipient{Name: "Owner", AccountNumber: acct.AccountNumber},
	})

	require.ErrorIs(t, err, domain.ErrInvalidRecipientDetails)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec(t, "300.00")))
}

func TestInitiate_SelfTransferCrossCurrencyRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	usd := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "300.00")
	eur := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyEUR, "0.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: usd.ID,
		Method:          transfer.MethodSelf,
		Amount:          "100.00",
		Recipient:       transfer.Recipient{Name: "Owner", AccountNumber: eur.AccountNumber},
	})

	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestInitiate_NotOwnAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	stranger := testutil.SeedUser(t, db, "stranger@test.com", "Stranger", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "1000.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         stranger.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodInternal,
		Amount:          "10.00",
		Recipient:       transfer.Recipient{Name: "X", AccountNumber: "0000000000"},
	})

	require.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestInitiate_FrozenAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "1000.00")
	testutil.FreezeAccount(t, db, acct.ID)

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodExternalIBAN,
		Amount:          "10.00",
		Recipient: transfer.Recipient{
			Name: "Hans", IBAN: "DE89370400440532013000", SwiftBIC: "COBADEFF",
			BankName: "Commerzbank", Country: "Germany",
		},
	})

	require.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestInitiate_CurrencyPolicy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Only USD enabled; EUR rides on the preferred-currency exception.
	svc := transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewApprovalRepository(db),
		repository.NewOutboxRepository(db),
		repository.NewUserRepository(db),
		db,
		&config.Config{AllowedTransferCurrencies: []string{"USD"}},
		nil,
	)

	eurPreferrer := testutil.SeedUser(t, db, "eur@test.com", "Eur", domain.CurrencyEUR, domain.UserRoleCustomer)
	gbpPreferrer := testutil.SeedUser(t, db, "gbp@test.com", "Gbp", domain.CurrencyGBP, domain.UserRoleCustomer)
	eurAcct := testutil.SeedAccount(t, db, eurPreferrer.ID, domain.CurrencyEUR, "100.00")
	eurAcct2 := testutil.SeedAccount(t, db, gbpPreferrer.ID, domain.CurrencyEUR, "100.00")

	iban := transfer.Recipient{
		Name: "Hans", IBAN: "DE89370400440532013000", SwiftBIC: "COBADEFF",
		BankName: "Commerzbank", Country: "Germany",
	}

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID: eurPreferrer.ID, SourceAccountID: eurAcct.ID,
		Method: transfer.MethodExternalIBAN, Amount: "50.00", Recipient: iban,
	})
	require.NoError(t, err)

	_, err = svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID: gbpPreferrer.ID, SourceAccountID: eurAcct2.ID,
		Method: transfer.MethodExternalIBAN, Amount: "50.00", Recipient: iban,
	})
	require.ErrorIs(t, err, domain.ErrCurrencyNotAllowed)
}

func TestInitiate_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "99.99")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodExternalSortCode,
		Amount:          "100.00",
		Recipient: transfer.Recipient{
			Name: "Mary", SortCode: "123456", ExternalAccountNumber: "12345678", BankName: "Barclays",
		},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec(t, "99.99")))
}

func TestInitiate_RecipientAccountNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "500.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodInternal,
		Amount:          "10.00",
		Recipient:       transfer.Recipient{Name: "Ghost", AccountNumber: "9999999999"},
	})

	require.ErrorIs(t, err, domain.ErrRecipientAccountNotFound)
}

func TestInitiate_InternalCurrencyMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "sender@test.com", "Sender", domain.CurrencyUSD, domain.UserRoleCustomer)
	recipient := testutil.SeedUser(t, db, "recipient@test.com", "Recipient", domain.CurrencyEUR, domain.UserRoleCustomer)
	senderAcct := testutil.SeedAccount(t, db, sender.ID, domain.CurrencyUSD, "500.00")
	recipientAcct := testutil.SeedAccount(t, db, recipient.ID, domain.CurrencyEUR, "0.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         sender.ID,
		SourceAccountID: senderAcct.ID,
		Method:          transfer.MethodInternal,
		Amount:          "10.00",
		Recipient:       transfer.Recipient{Name: "Recipient", AccountNumber: recipientAcct.AccountNumber},
	})

	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.True(t, testutil.GetBalance(t, db, senderAcct.ID).Equal(dec(t, "500.00")))
}

func TestInitiate_USARailRequiresUSD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyEUR, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyEUR, "500.00")

	_, err := svc.Initiate(ctx, transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodExternalUSA,
		Amount:          "10.00",
		Recipient: transfer.Recipient{
			Name: "John", RoutingNumber: "021000021", USAccountNumber: "987654321",
			AccountType: "Checking", BankName: "Chase",
		},
	})

	require.ErrorIs(t, err, domain.ErrCurrencyNotAllowed)
}

func TestInitiate_ConcurrentOverdraftExactlyOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", "Owner", domain.CurrencyUSD, domain.UserRoleCustomer)
	acct := testutil.SeedAccount(t, db, owner.ID, domain.CurrencyUSD, "100.00")

	req := transfer.InitiateRequest{
		OwnerID:         owner.ID,
		SourceAccountID: acct.ID,
		Method:          transfer.MethodExternalSortCode,
		Amount:          "60.00",
		Recipient: transfer.Recipient{
			Name: "Mary", SortCode: "123456", ExternalAccountNumber: "12345678", BankName: "Barclays",
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Initiate(ctx, req)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrConcurrentModification) || errors.Is(err, domain.ErrInsufficientFunds):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec(t, "40.00")))
}
