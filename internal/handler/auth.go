package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridianbank/core/internal/auth"
	"github.com/meridianbank/core/internal/domain"
)

type userReader interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthHandler struct {
	users     userReader
	jwtSecret string
	expiry    time.Duration
}

func NewAuthHandler(users userReader, jwtSecret string, expiry time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, expiry: expiry}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

var errInvalidCredentials = NewAppError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password is incorrect")

// Login handles POST /api/v1/auth/login. Unknown email and wrong password
// return the same error so the endpoint cannot be used to enumerate users.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeBody(r, &body); err != nil {
		RespondError(w, r, ErrBadRequest)
		return
	}
	if body.Email == "" || body.Password == "" {
		RespondError(w, r, ErrBadRequest.WithDetails("email and password are required"))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), body.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondError(w, r, errInvalidCredentials)
			return
		}
		RespondDomainError(w, r, err)
		return
	}
	if user.Status != domain.UserStatusActive {
		RespondError(w, r, errInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		RespondError(w, r, errInvalidCredentials)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, h.jwtSecret, h.expiry)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, loginResponse{Token: token})
}
