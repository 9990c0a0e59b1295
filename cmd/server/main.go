package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/controller"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/app/service"
	"github.com/ikkim/lunchmap-backend/internal/cache"
	"github.com/ikkim/lunchmap-backend/internal/crawler"
	"github.com/ikkim/lunchmap-backend/internal/db"
	"github.com/ikkim/lunchmap-backend/internal/router"
	"github.com/ikkim/lunchmap-backend/internal/scheduler"
	"github.com/ikkim/lunchmap-backend/internal/storage"
	ws "github.com/ikkim/lunchmap-backend/internal/websocket"
	"github.com/ikkim/lunchmap-backend/pkg/kakao"
	"github.com/ikkim/lunchmap-backend/pkg/llm"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting LUNCHMAP Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"llm":         cfg.LLM.Provider,
	})

	// Initialize database
	gdb, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Collaborators
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		logger.Fatal("Failed to initialize LLM client", err)
	}
	if cfg.Search.KakaoAPIKey == "" {
		logger.Warn("KAKAO_API_KEY is empty, nearby search will fail", nil)
	}
	searcher := kakao.NewClient(cfg.Search.KakaoAPIKey)

	// Initialize repositories
	storeRepo := repository.NewStoreRepository(gdb)
	reviewRepo := repository.NewReviewRepository(gdb)

	// Initialize services
	reviewService := service.NewReviewService(storeRepo, reviewRepo)

	var pipeline service.PipelineService
	hub := ws.NewHub(func(session string) {
		pipeline.Cancel(session)
	})

	deps := service.PipelineDeps{
		Searcher:  searcher,
		Freshness: service.NewFreshnessService(storeRepo),
		Crawl:     service.NewCrawlService(crawler.RemoteProviders(&cfg.Crawl), &cfg.Crawl),
		Merge:     service.NewMergeService(gdb, storeRepo, reviewRepo),
		Reviews:   reviewService,
		Summary:   service.NewSummaryService(llmClient, &cfg.LLM),
		Sessions:  service.NewSessionRegistry(),
		Progress:  hub,
	}

	if cfg.Redis.Enabled {
		resultCache, err := cache.Connect(&cfg.Redis)
		if err != nil {
			// 캐시 없이도 동작
			logger.Warn("Search cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			deps.Cache = resultCache
			defer resultCache.Close()
		}
	}

	if cfg.S3.Enabled {
		deps.Mirror = storage.NewS3Mirror(&cfg.S3)
		logger.Info("Store image mirroring enabled", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
		})
	}

	pipeline = service.NewPipelineService(deps, cfg)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	refresh := scheduler.NewRefreshScheduler(pipeline, &cfg.Scheduler)
	if err := refresh.Start(); err != nil {
		logger.Fatal("Failed to start refresh scheduler", err)
	}
	defer refresh.Stop()

	// Initialize controllers
	searchController := controller.NewSearchController(pipeline)
	reviewController := controller.NewReviewController(reviewService)
	locationController := controller.NewLocationController(searcher)
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	r := router.NewRouter(searchController, reviewController, locationController, wsController, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
