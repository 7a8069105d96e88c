package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"corridors-server/internal/activity"
	"corridors-server/internal/corridor"
	"corridors-server/internal/shared/errors"
	"corridors-server/internal/shared/response"
)

// EventsHandler exposes the manual world-event triggers.
type EventsHandler struct {
	engine   *corridor.Engine
	activity *activity.Service
}

func NewEventsHandler(engine *corridor.Engine, activitySvc *activity.Service) *EventsHandler {
	return &EventsHandler{engine: engine, activity: activitySvc}
}

// TriggerCorridor fires one rolled-intensity shift immediately.
func (h *EventsHandler) TriggerCorridor(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "events_trigger_corridor")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	result, err := h.engine.TriggerShift(r.Context(), 0)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

// GenerateJobs runs one round of static NPC job listings.
func (h *EventsHandler) GenerateJobs(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "events_generate_jobs")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	if err := h.activity.GenerateJobs(r.Context()); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]string{"status": "jobs generated"})
}

type forceCollapseRequest struct {
	Name string `json:"name"`
}

// ForceCollapse collapses the named corridor, isolation rules apply.
func (h *EventsHandler) ForceCollapse(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "events_force_collapse")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req forceCollapseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}
	if req.Name == "" {
		response.Error(w, r, logger, errors.Validation("corridor name is required"))
		return
	}

	collapsed, err := h.engine.ForceCollapse(r.Context(), req.Name)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Corridor force-collapsed", "corridor", collapsed.Name)
	response.Success(w, http.StatusOK, collapsed)
}

type emergencyJobsRequest struct {
	Count int `json:"count"`
}

// EmergencyJobs posts 1-20 urgent listings across the galaxy.
func (h *EventsHandler) EmergencyJobs(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "events_emergency_jobs")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	req := emergencyJobsRequest{Count: 1}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
			return
		}
	}

	posted, err := h.activity.EmergencyJobs(r.Context(), req.Count)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]int{"posted": posted})
}
