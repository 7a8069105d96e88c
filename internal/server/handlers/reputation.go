package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"corridors-server/internal/reputation"
	"corridors-server/internal/shared/errors"
	"corridors-server/internal/shared/response"
)

type ReputationHandler struct {
	reputation *reputation.Service
}

func NewReputationHandler(reputationSvc *reputation.Service) *ReputationHandler {
	return &ReputationHandler{reputation: reputationSvc}
}

type setReputationRequest struct {
	UserID   int64  `json:"user_id"`
	Location string `json:"location"`
	Value    int    `json:"value"`
}

type setReputationResponse struct {
	Location string `json:"location"`
	Value    int    `json:"value"`
	Tier     string `json:"tier"`
}

// Set overrides a user's standing at a named location and propagates
// the delta outward.
func (h *ReputationHandler) Set(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "reputation_set")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req setReputationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}
	if req.UserID == 0 {
		response.Error(w, r, logger, errors.Validation("user_id is required"))
		return
	}
	if req.Location == "" {
		response.Error(w, r, logger, errors.Validation("location is required"))
		return
	}

	location, value, err := h.reputation.SetReputation(r.Context(), req.UserID, req.Location, req.Value)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Reputation set",
		"user_id", req.UserID, "location", location.Name, "value", value)

	response.Success(w, http.StatusOK, setReputationResponse{
		Location: location.Name,
		Value:    value,
		Tier:     reputation.TierOf(value),
	})
}
