package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/core/internal/auth"
	"github.com/meridianbank/core/internal/domain"
	"github.com/meridianbank/core/internal/service/transfer"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"hello": "world"})
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuth_MissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)

	Auth(testSecret)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "MISSING_TOKEN", resp.Error.Code)
}

func TestAuth_MalformedToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	Auth(testSecret)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeEnvelope(t, rec).Error.Code)
}

func TestAuth_ValidTokenPassesClaims(t *testing.T) {
	userID := uuid.New()
	token, err := auth.GenerateToken(userID, "user@test.com", domain.UserRoleCustomer, testSecret, time.Hour)
	require.NoError(t, err)

	var gotID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.UserIDFromContext(r.Context())
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	Auth(testSecret)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
}

func TestRequireAdmin(t *testing.T) {
	customer := &auth.Claims{UserID: uuid.New(), Email: "c@test.com", Role: domain.UserRoleCustomer}
	admin := &auth.Claims{UserID: uuid.New(), Email: "a@test.com", Role: domain.UserRoleAdmin}

	for _, tt := range []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"customer forbidden", customer, http.StatusForbidden},
		{"admin allowed", admin, http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/transfers", nil)
			req = req.WithContext(auth.ContextWithClaims(req.Context(), tt.claims))

			RequireAdmin(okHandler()).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{domain.ErrInvalidAmount, http.StatusUnprocessableEntity, "INVALID_AMOUNT"},
		{domain.ErrAlreadyProcessed, http.StatusConflict, "ALREADY_PROCESSED"},
		{domain.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
		{domain.ErrCurrencyMismatch, http.StatusConflict, "CURRENCY_MISMATCH"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("Initiate: %w", domain.ErrInvalidRecipientDetails), http.StatusUnprocessableEntity, "INVALID_RECIPIENT_DETAILS"},
		{fmt.Errorf("wrapped twice: %w", fmt.Errorf("once: %w", domain.ErrInvalidDisposition)), http.StatusUnprocessableEntity, "INVALID_DISPOSITION"},
		{fmt.Errorf("some driver error"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil)

			RespondDomainError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

// Keep the handler-facing service surface stable: the concrete service must
// satisfy the private interface the router wires against.
var _ transferService = (*transfer.Service)(nil)
