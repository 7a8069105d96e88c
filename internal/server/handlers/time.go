package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"corridors-server/internal/gametime"
	"corridors-server/internal/shared/errors"
	"corridors-server/internal/shared/response"
)

// TimeHandler exposes clock administration.
type TimeHandler struct {
	clock *gametime.Service
}

func NewTimeHandler(clock *gametime.Service) *TimeHandler {
	return &TimeHandler{clock: clock}
}

func (h *TimeHandler) Pause(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "time_pause")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	if err := h.clock.Pause(r.Context(), true); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (h *TimeHandler) Resume(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "time_resume")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	if err := h.clock.Resume(r.Context()); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, map[string]string{"status": "running"})
}

type setTimeRequest struct {
	Datetime string `json:"datetime"` // "DD-MM-YYYY HH:MM"
}

func (h *TimeHandler) SetTime(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "time_set")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req setTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}

	dt, err := time.ParseInLocation("02-01-2006 15:04", req.Datetime, time.UTC)
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("datetime must be DD-MM-YYYY HH:MM", err))
		return
	}

	if err := h.clock.SetCurrent(r.Context(), dt); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Game time set", "datetime", req.Datetime)
	response.Success(w, http.StatusOK, map[string]string{"current": gametime.FormatISST(dt)})
}

type setSpeedRequest struct {
	Scale float64 `json:"scale"`
}

func (h *TimeHandler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "time_speed")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req setSpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}

	if err := h.clock.SetScale(r.Context(), req.Scale); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Time scale changed", "scale", req.Scale)
	response.Success(w, http.StatusOK, map[string]float64{"scale": req.Scale})
}

type debugResponse struct {
	Galaxy       gametime.GalaxyInfo `json:"galaxy"`
	CurrentISST  string              `json:"current_isst"`
	CurrentShift string              `json:"current_shift"`
	Scale        float64             `json:"scale"`
}

func (h *TimeHandler) Debug(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "time_debug")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	info, err := h.clock.Info()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	current, err := h.clock.Current()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	shift, err := h.clock.CurrentShift()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, debugResponse{
		Galaxy:       info,
		CurrentISST:  gametime.FormatISST(current),
		CurrentShift: string(shift),
		Scale:        h.clock.Scale(),
	})
}
