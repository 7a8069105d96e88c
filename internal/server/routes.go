package server

import (
	"log/slog"
	"net/http"

	"corridors-server/internal/activity"
	"corridors-server/internal/corridor"
	"corridors-server/internal/galaxy"
	"corridors-server/internal/galaxy/gen"
	"corridors-server/internal/gametime"
	"corridors-server/internal/history"
	"corridors-server/internal/middleware"
	"corridors-server/internal/observability"
	"corridors-server/internal/reputation"
	serverHandlers "corridors-server/internal/server/handlers"
	"corridors-server/internal/shared/database"
)

type Routes struct {
	db         *database.DB
	clock      *gametime.Service
	galaxy     *galaxy.Service
	generator  *gen.Generator
	history    *history.Generator
	engine     *corridor.Engine
	activity   *activity.Service
	reputation *reputation.Service
	logger     *slog.Logger
}

func NewRoutes(db *database.DB, clock *gametime.Service, galaxySvc *galaxy.Service, generator *gen.Generator, historyGen *history.Generator, engine *corridor.Engine, activitySvc *activity.Service, reputationSvc *reputation.Service, logger *slog.Logger) *Routes {
	return &Routes{
		db:         db,
		clock:      clock,
		galaxy:     galaxySvc,
		generator:  generator,
		history:    historyGen,
		engine:     engine,
		activity:   activitySvc,
		reputation: reputationSvc,
		logger:     logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.clock)
	galaxyHandler := serverHandlers.NewGalaxyHandler(r.generator, r.history, r.galaxy, r.engine)
	eventsHandler := serverHandlers.NewEventsHandler(r.engine, r.activity)
	timeHandler := serverHandlers.NewTimeHandler(r.clock)
	reputationHandler := serverHandlers.NewReputationHandler(r.reputation)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.HandleFunc("/api/galaxy/connectivity", galaxyHandler.Connectivity)
	mux.Handle("/metrics", observability.Handler())

	// Admin-only endpoints (X-Admin-Token)
	mux.Handle("/api/galaxy/generate", middleware.RequireAdmin(http.HandlerFunc(galaxyHandler.Generate)))
	mux.Handle("/api/galaxy/shift", middleware.RequireAdmin(http.HandlerFunc(galaxyHandler.Shift)))
	mux.Handle("/api/events/trigger-corridor", middleware.RequireAdmin(http.HandlerFunc(eventsHandler.TriggerCorridor)))
	mux.Handle("/api/events/generate-jobs", middleware.RequireAdmin(http.HandlerFunc(eventsHandler.GenerateJobs)))
	mux.Handle("/api/events/force-collapse", middleware.RequireAdmin(http.HandlerFunc(eventsHandler.ForceCollapse)))
	mux.Handle("/api/events/emergency-jobs", middleware.RequireAdmin(http.HandlerFunc(eventsHandler.EmergencyJobs)))
	mux.Handle("/api/time/pause", middleware.RequireAdmin(http.HandlerFunc(timeHandler.Pause)))
	mux.Handle("/api/time/resume", middleware.RequireAdmin(http.HandlerFunc(timeHandler.Resume)))
	mux.Handle("/api/time/set", middleware.RequireAdmin(http.HandlerFunc(timeHandler.SetTime)))
	mux.Handle("/api/time/speed", middleware.RequireAdmin(http.HandlerFunc(timeHandler.SetSpeed)))
	mux.Handle("/api/time/debug", middleware.RequireAdmin(http.HandlerFunc(timeHandler.Debug)))
	mux.Handle("/api/reputation/set", middleware.RequireAdmin(http.HandlerFunc(reputationHandler.Set)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/galaxy/connectivity", "/metrics"},
		"admin_endpoints", []string{
			"/api/galaxy/generate", "/api/galaxy/shift",
			"/api/events/trigger-corridor", "/api/events/generate-jobs",
			"/api/events/force-collapse", "/api/events/emergency-jobs",
			"/api/time/pause", "/api/time/resume", "/api/time/set", "/api/time/speed", "/api/time/debug",
			"/api/reputation/set",
		},
	)

	return mux
}
