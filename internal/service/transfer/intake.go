package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/logging"
)

// InitiateRequest is a transfer request for an authenticated owner. The
// owner id comes from the identity provider and is trusted as-is.
type InitiateRequest struct {
	OwnerID         uuid.UUID
	SourceAccountID uuid.UUID
	Method          Method
	Amount          string
	Description     string
	Recipient       Recipient
}

// Initiate validates a transfer request and, on success, debits the sender
// and journals a PENDING row in one atomic unit. Any validation failure
// aborts before the first mutation.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	txn, err := s.initiate(ctx, req)
	if err != nil {
		s.metrics.RecordIntakeRejection(rejectionReason(err))
		return nil, err
	}

	s.metrics.RecordIntake(string(txn.Type))
	log.Info("transfer initiated",
		"transaction_id", txn.ID,
		"reference", txn.Reference,
		"type", txn.Type,
		"amount", txn.Amount,
		"currency", txn.Currency,
	)
	return txn, nil
}

func (s *Service) initiate(ctx context.Context, req InitiateRequest) (*domain.Transaction, error) {
	transferType, ok := req.Method.transferType()
	if !ok {
		return nil, fmt.Errorf("Initiate: unknown method %q: %w", req.Method, domain.ErrInvalidRecipientDetails)
	}

	source, err := s.accounts.GetByID(ctx, req.SourceAccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Initiate: %w", domain.ErrInvalidAccount)
		}
		return nil, fmt.Errorf("Initiate: %w", err)
	}
	if source.UserID != req.OwnerID || source.Status != domain.AccountStatusActive {
		return nil, fmt.Errorf("Initiate: %w", domain.ErrInvalidAccount)
	}

	owner, err := s.users.GetByID(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	// Currency policy: the account currency must be in the configured set,
	// with the owner's preferred currency as the single allowed exception.
	if !s.config.CurrencyAllowed(source.Currency) && source.Currency != owner.PreferredCurrency {
		return nil, fmt.Errorf("Initiate: %s: %w", source.Currency, domain.ErrCurrencyNotAllowed)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}
	if amount.GreaterThan(source.Balance) {
		return nil, fmt.Errorf("Initiate: %w", domain.ErrInsufficientFunds)
	}

	if err := validateRecipient(req.Method, req.Recipient); err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	recipientUserID, err := s.checkMethodSemantics(ctx, req, source)
	if err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	now := time.Now().UTC()
	reference, err := generateReference(now)
	if err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	txn, err := buildTransaction(req, transferType, source, owner, recipientUserID, amount, reference, now)
	if err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	if err := s.executeIntake(ctx, txn, source, owner); err != nil {
		return nil, fmt.Errorf("Initiate: %w", err)
	}

	return txn, nil
}

// checkMethodSemantics runs the ledger-aware checks a method needs beyond
// its field schema. It returns the recipient's user id for internal
// methods, nil for external rails.
func (s *Service) checkMethodSemantics(ctx context.Context, req InitiateRequest, source *domain.Account) (*uuid.UUID, error) {
	switch req.Method {
	case MethodSelf:
		dest, err := s.lookupInternalDestination(ctx, req.Recipient.AccountNumber)
		if err != nil {
			return nil, err
		}
		if dest.UserID != req.OwnerID || dest.ID == source.ID {
			return nil, fmt.Errorf("checkMethodSemantics: %w", domain.ErrInvalidRecipientDetails)
		}
		// Cross-currency self transfers are rejected outright; there is no
		// implicit conversion.
		if dest.Currency != source.Currency {
			return nil, fmt.Errorf("checkMethodSemantics: %w", domain.ErrCurrencyMismatch)
		}
		return &dest.UserID, nil

	case MethodInternal:
		dest, err := s.lookupInternalDestination(ctx, req.Recipient.AccountNumber)
		if err != nil {
			return nil, err
		}
		if dest.UserID == req.OwnerID {
			return nil, fmt.Errorf("checkMethodSemantics: own account requires self method: %w", domain.ErrInvalidRecipientDetails)
		}
		if dest.Currency != source.Currency {
			return nil, fmt.Errorf("checkMethodSemantics: %w", domain.ErrCurrencyMismatch)
		}
		return &dest.UserID, nil

	case MethodExternalIBAN, MethodExternalSortCode:
		return nil, nil

	case MethodExternalUSA:
		// The USA rail settles in USD only.
		if source.Currency != domain.CurrencyUSD {
			return nil, fmt.Errorf("checkMethodSemantics: USA rail requires USD source: %w", domain.ErrCurrencyNotAllowed)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("checkMethodSemantics: unknown method %q: %w", req.Method, domain.ErrInvalidRecipientDetails)
}

func (s *Service) lookupInternalDestination(ctx context.Context, accountNumber string) (*domain.Account, error) {
	dest, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookupInternalDestination: %w", domain.ErrRecipientAccountNotFound)
		}
		return nil, fmt.Errorf("lookupInternalDestination: %w", err)
	}
	if dest.Status != domain.AccountStatusActive {
		return nil, fmt.Errorf("lookupInternalDestination: %w", domain.ErrRecipientAccountNotFound)
	}
	return dest, nil
}

func buildTransaction(
	req InitiateRequest,
	transferType domain.TransferType,
	source *domain.Account,
	owner *domain.User,
	recipientUserID *uuid.UUID,
	amount decimal.Decimal,
	reference string,
	now time.Time,
) (*domain.Transaction, error) {
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Reference:   reference,
		UserID:      owner.ID,
		AccountID:   source.ID,
		Amount:      amount,
		Currency:    source.Currency,
		Type:        transferType,
		Description: req.Description,
		Status:      domain.TransferStatusPending,
		InitiatedAt: now,

		RecipientName: req.Recipient.Name,

		SenderName:          owner.Name,
		SenderAccountNumber: source.AccountNumber,
		SenderUserID:        owner.ID,

		// Conversion is a stub: rate pinned at 1.0, converted == original.
		ConvertedAmount:   amount,
		ConvertedCurrency: source.Currency,
		ExchangeRate:      decimal.NewFromInt(1),
	}

	switch req.Method {
	case MethodSelf, MethodInternal:
		txn.RecipientAccountNumber = strPtr(req.Recipient.AccountNumber)
		txn.RecipientUserID = recipientUserID

	case MethodExternalIBAN:
		txn.RecipientIBAN = strPtr(req.Recipient.IBAN)
		txn.RecipientSwiftBIC = strPtr(req.Recipient.SwiftBIC)
		txn.RecipientBankName = strPtr(req.Recipient.BankName)
		txn.RecipientCountry = strPtr(req.Recipient.Country)

	case MethodExternalSortCode:
		txn.RecipientSortCode = strPtr(req.Recipient.SortCode)
		txn.RecipientExternalAcctNo = strPtr(req.Recipient.ExternalAccountNumber)
		txn.RecipientBankName = strPtr(req.Recipient.BankName)

	case MethodExternalUSA:
		txn.RecipientRoutingNumber = strPtr(req.Recipient.RoutingNumber)
		txn.RecipientExternalAcctNo = strPtr(req.Recipient.USAccountNumber)
		txn.RecipientBankName = strPtr(req.Recipient.BankName)
	}

	if transferType.External() {
		details, err := json.Marshal(req.Recipient)
		if err != nil {
			return nil, fmt.Errorf("buildTransaction: marshal bank details: %w", err)
		}
		txn.ExternalBankDetails = details
	}

	return txn, nil
}

// executeIntake is the intake's atomic unit: conditional debit, journal
// insert and outbox append commit together or not at all.
func (s *Service) executeIntake(ctx context.Context, txn *domain.Transaction, source *domain.Account, owner *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("executeIntake: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.accounts.DebitIfSufficient(ctx, tx, source.ID, txn.Amount); err != nil {
		return fmt.Errorf("executeIntake: %w", err)
	}

	if err := s.journal.Create(ctx, tx, txn); err != nil {
		return fmt.Errorf("executeIntake: %w", err)
	}

	body := fmt.Sprintf(
		"Your transfer of %s %s to %s is pending approval. Reference: %s.",
		txn.Amount.StringFixed(2), txn.Currency, txn.RecipientName, txn.Reference,
	)
	if err := s.queueNotification(ctx, tx, owner.Email, "Transfer pending approval", body); err != nil {
		return fmt.Errorf("executeIntake: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("executeIntake: commit: %w", err)
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAccount):
		return "invalid_account"
	case errors.Is(err, domain.ErrCurrencyNotAllowed):
		return "currency_not_allowed"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidRecipientDetails):
		return "invalid_recipient_details"
	case errors.Is(err, domain.ErrRecipientAccountNotFound):
		return "recipient_account_not_found"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "concurrent_modification"
	default:
		return "internal"
	}
}

func strPtr(s string) *string { return &s }
