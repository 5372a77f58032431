package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridianbank/core/internal/auth"
	"github.com/meridianbank/core/internal/service/transfer"
)

type settleRequest struct {
	Disposition string `json:"disposition"`
	Reason      string `json:"reason,omitempty"`
}

// Settle handles POST /api/v1/admin/transfers/{id}/settle.
func (h *TransferHandler) Settle(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondError(w, r, ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, ErrBadRequest.WithDetails("id must be a UUID"))
		return
	}

	var body settleRequest
	if err := decodeBody(r, &body); err != nil {
		RespondError(w, r, ErrBadRequest)
		return
	}

	txn, err := h.transfers.Settle(r.Context(), transfer.SettleRequest{
		TransactionID: id,
		AdminID:       claims.UserID,
		Disposition:   transfer.Disposition(body.Disposition),
		Reason:        body.Reason,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransferResponse(txn))
}

// ListPending handles GET /api/v1/admin/transfers. Only the PENDING queue is
// exposed; settled rows are reached individually.
func (h *TransferHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" && status != "PENDING" {
		RespondError(w, r, ErrBadRequest.WithDetails("only status=PENDING is supported"))
		return
	}

	limit, offset := paginationParams(r)
	txns, err := h.transfers.ListPending(r.Context(), limit, offset)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransferResponses(txns))
}

// GetAny handles GET /api/v1/admin/transfers/{id} without owner scoping.
func (h *TransferHandler) GetAny(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, ErrBadRequest.WithDetails("id must be a UUID"))
		return
	}

	txn, err := h.transfers.GetTransaction(r.Context(), id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransferResponse(txn))
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
