package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/auth"
	"github.com/meridianbank/core/internal/domain"
)

type accountReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts accountReader
}

func NewAccountHandler(accounts accountReader) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Balance       string    `json:"balance"`
}

// List handles GET /api/v1/accounts, returning the caller's own accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, r, ErrInvalidToken)
		return
	}

	accounts, err := h.accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:            a.ID,
			AccountNumber: a.AccountNumber,
			Currency:      string(a.Currency),
			Status:        string(a.Status),
			Balance:       a.Balance.StringFixed(2),
		})
	}

	RespondJSON(w, http.StatusOK, out)
}
