package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/auth"
	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/service/transfer"
)

type transferService interface {
	Initiate(ctx context.Context, req transfer.InitiateRequest) (*domain.Transaction, error)
	Settle(ctx context.Context, req transfer.SettleRequest) (*domain.Transaction, error)
	GetTransactionForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
	ListPending(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
}

type TransferHandler struct {
	transfers transferService
}

func NewTransferHandler(transfers transferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type recipientRequest struct {
	Name                  string `json:"name"`
	AccountNumber         string `json:"account_number,omitempty"`
	IBAN                  string `json:"iban,omitempty"`
	SwiftBIC              string `json:"swift_bic,omitempty"`
	Country               string `json:"country,omitempty"`
	SortCode              string `json:"sort_code,omitempty"`
	ExternalAccountNumber string `json:"external_account_number,omitempty"`
	RoutingNumber         string `json:"routing_number,omitempty"`
	USAccountNumber       string `json:"us_account_number,omitempty"`
	AccountType           string `json:"account_type,omitempty"`
	BankName              string `json:"bank_name,omitempty"`
	BankAddress           string `json:"bank_address,omitempty"`
	BankCity              string `json:"bank_city,omitempty"`
	BankState             string `json:"bank_state,omitempty"`
	BankZIP               string `json:"bank_zip,omitempty"`
}

type initiateTransferRequest struct {
	SourceAccountID string           `json:"source_account_id"`
	Method          string           `json:"method"`
	Amount          string           `json:"amount"`
	Description     string           `json:"description,omitempty"`
	Recipient       recipientRequest `json:"recipient"`
}

type transferResponse struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	AccountID     uuid.UUID `json:"account_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Description   string    `json:"description,omitempty"`
	RecipientName string    `json:"recipient_name"`
	InitiatedAt   string    `json:"initiated_at"`
	CompletedAt   *string   `json:"completed_at,omitempty"`
	AdminComment  *string   `json:"admin_comment,omitempty"`
}

func toTransferResponse(t *domain.Transaction) transferResponse {
	resp := transferResponse{
		ID:            t.ID,
		Reference:     t.Reference,
		AccountID:     t.AccountID,
		Amount:        t.Amount.StringFixed(2),
		Currency:      string(t.Currency),
		Type:          string(t.Type),
		Status:        string(t.Status),
		Description:   t.Description,
		RecipientName: t.RecipientName,
		InitiatedAt:   t.InitiatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		AdminComment:  t.AdminComment,
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format("2006-01-02T15:04:05Z")
		resp.CompletedAt = &s
	}
	return resp
}

func toTransferResponses(txns []domain.Transaction) []transferResponse {
	out := make([]transferResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransferResponse(&txns[i]))
	}
	return out
}

// Initiate handles POST /api/v1/transfers.
func (h *TransferHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, r, ErrInvalidToken)
		return
	}

	var body initiateTransferRequest
	if err := decodeBody(r, &body); err != nil {
		RespondError(w, r, ErrBadRequest)
		return
	}

	sourceID, err := uuid.Parse(body.SourceAccountID)
	if err != nil {
		RespondError(w, r, ErrBadRequest.WithDetails("source_account_id must be a UUID"))
		return
	}

	txn, err := h.transfers.Initiate(r.Context(), transfer.InitiateRequest{
		OwnerID:         userID,
		SourceAccountID: sourceID,
		Method:          transfer.Method(body.Method),
		Amount:          body.Amount,
		Description:     body.Description,
		Recipient: transfer.Recipient{
			Name:                  body.Recipient.Name,
			AccountNumber:         body.Recipient.AccountNumber,
			IBAN:                  body.Recipient.IBAN,
			SwiftBIC:              body.Recipient.SwiftBIC,
			Country:               body.Recipient.Country,
			SortCode:              body.Recipient.SortCode,
			ExternalAccountNumber: body.Recipient.ExternalAccountNumber,
			RoutingNumber:         body.Recipient.RoutingNumber,
			USAccountNumber:       body.Recipient.USAccountNumber,
			AccountType:           body.Recipient.AccountType,
			BankName:              body.Recipient.BankName,
			BankAddress:           body.Recipient.BankAddress,
			BankCity:              body.Recipient.BankCity,
			BankState:             body.Recipient.BankState,
			BankZIP:               body.Recipient.BankZIP,
		},
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, toTransferResponse(txn))
}

// Get handles GET /api/v1/transfers/{id}, scoped to the caller's own rows.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, r, ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, ErrBadRequest.WithDetails("id must be a UUID"))
		return
	}

	txn, err := h.transfers.GetTransactionForUser(r.Context(), id, userID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransferResponse(txn))
}

// List handles GET /api/v1/transfers.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, r, ErrInvalidToken)
		return
	}

	limit, offset := paginationParams(r)
	txns, err := h.transfers.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransferResponses(txns))
}
