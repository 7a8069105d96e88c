package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"corridors-server/internal/corridor"
	"corridors-server/internal/galaxy"
	"corridors-server/internal/galaxy/gen"
	"corridors-server/internal/gametime"
	"corridors-server/internal/history"
	"corridors-server/internal/shared/config"
	"corridors-server/internal/shared/errors"
	"corridors-server/internal/shared/response"
)

type GalaxyHandler struct {
	generator *gen.Generator
	history   *history.Generator
	galaxy    *galaxy.Service
	engine    *corridor.Engine
}

func NewGalaxyHandler(generator *gen.Generator, historyGen *history.Generator, galaxySvc *galaxy.Service, engine *corridor.Engine) *GalaxyHandler {
	return &GalaxyHandler{
		generator: generator,
		history:   historyGen,
		galaxy:    galaxySvc,
		engine:    engine,
	}
}

type generateRequest struct {
	Locations int     `json:"locations"`
	Clear     bool    `json:"clear"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	TimeScale float64 `json:"time_scale"`
	Seed      uint64  `json:"seed"`
}

type generateResponse struct {
	*gen.Result
	HistoryEvents int `json:"history_events"`
}

// Generate builds a new galaxy, then backfills its history.
func (h *GalaxyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "galaxy_generate")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	defaults := config.GlobalConfig.Galaxy
	req := generateRequest{
		Locations: defaults.DefaultLocations,
		Name:      defaults.DefaultName,
		StartDate: defaults.DefaultStartDate,
		TimeScale: defaults.DefaultTimeScale,
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
			return
		}
	}

	result, err := h.generator.Generate(r.Context(), gen.Params{
		NumLocations: req.Locations,
		Clear:        req.Clear,
		Name:         req.Name,
		StartDate:    req.StartDate,
		TimeScale:    req.TimeScale,
		Seed:         req.Seed,
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	startDate, err := gametime.ParseStartDate(req.StartDate)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	events, err := h.history.Generate(r.Context(), startDate)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Galaxy generated",
		"locations", result.MajorLocations,
		"corridors", result.Corridors,
		"history_events", events,
		"elapsed_seconds", result.ElapsedSeconds)

	response.Success(w, http.StatusCreated, generateResponse{Result: result, HistoryEvents: events})
}

type shiftRequest struct {
	Intensity int `json:"intensity"`
}

// Shift triggers an on-demand corridor shift. Omitted intensity rolls
// one the way the scheduled loops do.
func (h *GalaxyHandler) Shift(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "galaxy_shift")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req shiftRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
			return
		}
	}

	result, err := h.engine.TriggerShift(r.Context(), req.Intensity)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

// Connectivity reports the state of the active corridor graph.
func (h *GalaxyHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "galaxy_connectivity")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	report, err := h.galaxy.AnalyzeConnectivity(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, report)
}
