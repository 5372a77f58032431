package handler

import (
	"encoding/json"
	"net/http"

	"github.com/meridianbank/core/internal/logging"
)

// APIResponse is the envelope every endpoint returns. Exactly one of Data
// and Error is set.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *AppError `json:"error,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondError(w http.ResponseWriter, r *http.Request, appErr *AppError) {
	if appErr.Status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			"code", appErr.Code, "path", r.URL.Path)
	}
	writeJSON(w, appErr.Status, APIResponse{Success: false, Error: appErr})
}

// RespondDomainError maps a service error to the wire and logs the cause,
// which never leaves the process.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := fromDomain(err)
	if appErr == ErrInternal {
		logging.FromContext(r.Context()).Error("unhandled service error",
			"error", err, "path", r.URL.Path)
	}
	writeJSON(w, appErr.Status, APIResponse{Success: false, Error: appErr})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
