package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hectoclash/internal/cache"
	"hectoclash/internal/config"
	"hectoclash/internal/hectoc"
	"hectoclash/internal/logger"
	"hectoclash/internal/metrics"
	"hectoclash/internal/repository"
	"hectoclash/internal/service"
	"hectoclash/internal/transport/rest"
	"hectoclash/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	rec, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up metrics")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	if err := waitFor(ctx, "mongodb", func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := waitFor(ctx, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Redis")
	}

	wsHub := ws.NewHub()

	// Repositories and caches
	userRepo := repository.NewUserRepo(db)
	resultRepo := repository.NewResultRepo(db)
	puzzleCache := cache.NewPuzzleCache(rdb, cfg.PuzzleTTL)
	resultCache := cache.NewResultCache(rdb, cfg.ResultTTL)
	leaderboardCache := cache.NewLeaderboardCache(rdb, cfg.LeaderboardTTL)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	puzzleSvc := service.NewPuzzleService(hectoc.NewGenerator(), puzzleCache, rec, service.PuzzleConfig{
		Target:         cfg.Game.Target,
		DigitCount:     cfg.Game.DigitCount,
		PuzzlesPerGame: cfg.Game.PuzzlesPerGame,
		SolveTimeout:   cfg.Game.SolveTimeout,
	})
	statsSvc := service.NewStatsService(userRepo, resultRepo, rec, service.StatsConfig{})
	statsSvc.SetLeaderboardCache(leaderboardCache)
	presenceSvc := service.NewPresenceService(wsHub)
	matchSvc := service.NewMatchService(puzzleSvc, wsHub, presenceSvc, statsSvc, resultCache, rec,
		service.DefaultScoringPolicy(), service.MatchConfig{
			TimeLimit:    cfg.Game.TimeLimit,
			SessionGrace: cfg.Game.SessionGrace,
		})
	invitationSvc := service.NewInvitationService(presenceSvc, matchSvc, wsHub, rec, cfg.Game.InvitationTTL)

	wsHandler := ws.NewHandler(wsHub, ws.Services{
		Auth:        authSvc,
		Matches:     matchSvc,
		Presence:    presenceSvc,
		Invitations: invitationSvc,
	}, cfg.WS)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		PuzzleService:   puzzleSvc,
		MatchService:    matchSvc,
		PresenceService: presenceSvc,
		StatsService:    statsSvc,
		WSHandler:       wsHandler,
		Metrics:         rec,
		MetricsHandler:  metricsHandler,
		CORS:            cfg.CORS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	wsHub.Close()
	if err := statsSvc.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending stats writes abandoned")
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics shutdown")
	}

	log.Info().Msg("server exited")
}

// waitFor retries ping with exponential backoff until it succeeds or a
// minute has passed.
func waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute

	return backoff.RetryNotify(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return ping(pingCtx)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Warn().Err(err).Str("dependency", name).Dur("retry_in", next).Msg("dependency not ready")
	})
}
