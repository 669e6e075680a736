package handlers

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

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	overall := "ok"
	dbStatus := map[string]any{"status": "ok"}
	status := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		overall = "degraded"
		dbStatus = map[string]any{"status": "down", "error": err.Error()}
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": overall,
		"db":     dbStatus,
	})
}
