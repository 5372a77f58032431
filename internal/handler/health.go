package handler

import (
	"database/sql"
	"net/http"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings the database; a failing pool takes the instance out of
// rotation without killing it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		RespondError(w, r, NewAppError(http.StatusServiceUnavailable, "NOT_READY", "database unreachable"))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
