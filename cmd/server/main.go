package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corridors-server/internal/activity"
	"corridors-server/internal/corridor"
	"corridors-server/internal/galaxy"
	"corridors-server/internal/galaxy/gen"
	"corridors-server/internal/gametime"
	"corridors-server/internal/history"
	"corridors-server/internal/middleware"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/platform"
	"corridors-server/internal/player"
	"corridors-server/internal/radio"
	"corridors-server/internal/reputation"
	"corridors-server/internal/server"
	"corridors-server/internal/shared/config"
	"corridors-server/internal/shared/database"
	"corridors-server/internal/shared/logger"
	"corridors-server/internal/status"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	logger.Init()
	cfg := config.GlobalConfig

	slog.Info("Starting corridors server",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver)

	db, err := database.Connect()
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	timeRepo := gametime.NewRepository(db, slog.Default())
	galaxyRepo := galaxy.NewRepository(db, slog.Default())
	playerRepo := player.NewRepository(db, slog.Default())
	npcRepo := npc.NewRepository(db, slog.Default())
	reputationRepo := reputation.NewRepository(db, slog.Default())
	newsRepo := news.NewRepository(db, slog.Default())
	historyRepo := history.NewRepository(db, slog.Default())
	guildRepo := platform.NewGuildRepository(db, slog.Default())

	// Guild channel routing comes from the environment; without it the
	// news, radio and status fan-outs have nobody to address.
	seeded, err := guildRepo.SeedFromConfig(context.Background(), cfg.Guilds)
	if err != nil {
		slog.Error("Failed to seed guild configuration", "error", err)
		os.Exit(1)
	}
	if seeded > 0 {
		slog.Info("Guild channel routing seeded", "guilds", seeded)
	} else {
		slog.Warn("No guilds configured, chat-facing output will be dropped")
	}

	// Chat sink: Redis-backed when enabled, otherwise a no-op.
	var sink platform.Sink = platform.NopSink{}
	if cfg.Redis.Enabled {
		redisSink, err := platform.NewRedisSink(cfg.Redis, slog.Default())
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisSink.Close()
		sink = redisSink
	} else {
		slog.Info("Redis disabled, chat messages will be dropped")
	}

	// Services
	clock := gametime.NewService(timeRepo, playerRepo, slog.Default())
	if err := clock.Load(context.Background()); err != nil {
		slog.Error("Failed to load galaxy clock", "error", err)
		os.Exit(1)
	}

	galaxySvc := galaxy.NewService(galaxyRepo, cfg.Galaxy.MaxRouteJumps, slog.Default())
	newsSvc := news.NewService(newsRepo, galaxyRepo, guildRepo, sink, slog.Default())
	radioSvc := radio.NewService(galaxyRepo, guildRepo, sink, slog.Default())
	reputationSvc := reputation.NewService(reputationRepo, galaxyRepo, slog.Default())
	engine := corridor.NewEngine(galaxyRepo, playerRepo, npcRepo, newsSvc, slog.Default())
	historyGen := history.NewGenerator(historyRepo, galaxyRepo, npcRepo, slog.Default())
	activitySvc := activity.NewService(npcRepo, galaxyRepo, playerRepo, newsSvc, radioSvc, slog.Default())
	statusSvc := status.NewService(clock, playerRepo, npcRepo, newsSvc, guildRepo, sink, slog.Default())

	tuning, err := gen.LoadTuning(cfg.Galaxy.TuningPath)
	if err != nil {
		slog.Error("Failed to load worldgen tuning", "path", cfg.Galaxy.TuningPath, "error", err)
		os.Exit(1)
	}
	generator := gen.NewGenerator(galaxyRepo, npcRepo, timeRepo, clock, tuning, slog.Default())

	// Background loops
	loopCtx, cancelLoops := context.WithCancel(context.Background())
	go newsSvc.Run(loopCtx)
	go engine.RunPrimaryLoop(loopCtx)
	go engine.RunSecondaryLoop(loopCtx)
	go statusSvc.Run(loopCtx)
	if err := activitySvc.Start(loopCtx); err != nil {
		slog.Error("Failed to start activity loops", "error", err)
		cancelLoops()
		os.Exit(1)
	}

	// HTTP surface
	routes := server.NewRoutes(db, clock, galaxySvc, generator, historyGen, engine, activitySvc, reputationSvc, slog.Default())
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	corsMiddleware := middleware.NewCORS()
	handler := corsMiddleware.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	}

	cancelLoops()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	activitySvc.Wait()
	slog.Info("Server stopped")
}
