package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"corridors-server/internal/gametime"
	"corridors-server/internal/shared/database"
	"corridors-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Galaxy    string `json:"galaxy"`
}

type HealthHandler struct {
	db    *database.DB
	clock *gametime.Service
}

func NewHealthHandler(db *database.DB, clock *gametime.Service) *HealthHandler {
	return &HealthHandler{db: db, clock: clock}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	dbStatus := "disconnected"
	if err := h.db.Ping(); err == nil {
		dbStatus = "connected"
	} else {
		logger.Warn("Database ping failed", "error", err)
	}

	galaxyStatus := "absent"
	if h.clock.HasGalaxy() {
		galaxyStatus = "loaded"
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
		Galaxy:    galaxyStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
