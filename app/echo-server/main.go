package main

import (
	"context"
	"fmt"
	"freshBite/app/echo-server/router"
	"freshBite/business/affinity"
	"freshBite/business/bandit"
	"freshBite/business/collab"
	"freshBite/business/feedback"
	"freshBite/business/recommend"
	"freshBite/business/trending"
	"freshBite/internal/middleware"
	memRepo "freshBite/internal/repository/memory"
	psqlRepo "freshBite/internal/repository/postgres"
	redisRepo "freshBite/internal/repository/redis"
	"freshBite/internal/rest"
	"freshBite/pkg/config"
	"freshBite/pkg/database"
	redisdb "freshBite/pkg/database/redis"
	"freshBite/pkg/logger"
	"freshBite/pkg/metrics"
	"freshBite/pkg/utils"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting FreshBite recommendation engine", "version", cfg.App.Version, "vertical", cfg.Engine.Vertical)

	utils.InitJWT(cfg.JWT.SecretKey)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Bandit statistics live in redis when configured, otherwise in-process.
	var statsRepo bandit.StatsRepository
	if cfg.Redis.RedisHost != "" {
		rdb, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer func() {
			if err := redisdb.CloseRedisClient(rdb); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}()
		statsRepo = redisRepo.NewBanditStatsRepository(rdb)
		logger.Info("Bandit statistics store: redis", "host", cfg.Redis.RedisHost)
	} else {
		statsRepo = memRepo.NewBanditStatsRepository()
		logger.Info("Bandit statistics store: in-memory")
	}

	// Init repo
	catalogRepo := psqlRepo.NewCatalogRepository(db)
	orderHistoryRepo := psqlRepo.NewOrderHistoryRepository(db)
	feedbackRepo := psqlRepo.NewFeedbackRepository(db)
	weightsRepo := psqlRepo.NewWeightsRepository(db)

	// Init service
	banditService := bandit.NewService(statsRepo, bandit.NewSampler(cfg.Engine.SamplerSeed))
	trendingService := trending.NewService(orderHistoryRepo, time.Duration(cfg.Engine.TrendingCacheTTLSec)*time.Second)
	affinityService := affinity.NewService(
		orderHistoryRepo,
		time.Duration(cfg.Engine.AffinityLookbackDays)*24*time.Hour,
		time.Duration(cfg.Engine.AffinityCacheTTLSec)*time.Second,
	)
	collabService := collab.NewService(orderHistoryRepo, time.Duration(cfg.Engine.CollabCacheTTLSec)*time.Second)

	recommendService := recommend.NewService(
		catalogRepo,
		banditService,
		trendingService,
		affinityService,
		collabService,
		weightsRepo,
		recommend.Config{
			TrendingWindowHours: cfg.Engine.TrendingWindowHours,
			MaxCandidates:       cfg.Engine.MaxCandidates,
			DefaultLimit:        cfg.Engine.DefaultLimit,
		},
	)

	recorder := feedback.NewRecorder(banditService, feedbackRepo, cfg.Engine.FeedbackQueueSize, cfg.Engine.FeedbackMaxRetries)
	recorder.Start(context.Background())

	// Init handler
	recommendationHandler := rest.NewRecommendationHandler(recommendService, recorder)
	adminHandler := rest.NewAdminHandler(weightsRepo, banditService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recommendationHandler)
	router.SetAdminRoutes(api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Drain queued feedback before exit
	recorder.Close()

	logger.Info("Server stopped")
}
