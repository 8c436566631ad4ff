package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/handler"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/cache"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/database"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
)

// @title SMA Gradebook API
// @version 1.0.0
// @description Grade matrix, rubric scoring and cell editing for class gradebooks.
// @BasePath /api/v1
// @schemes http

const (
	startupTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	db, err := database.NewPostgres(startCtx, cfg.Database)
	cancel()
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	var redisClient redis.Cmdable
	if cfg.Gradebook.SummaryCacheEnabled {
		startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		client, err := cache.NewRedis(startCtx, cfg.Redis)
		cancel()
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			redisClient = client
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	scale := repository.LevelScaleRubric
	if cfg.Gradebook.RubricLevelScale == config.RubricScaleFixed {
		scale = repository.LevelScaleFixed
	}

	matrix := repository.NewGradeMatrix()
	scores := repository.NewRubricScoreStore(scale, cfg.Gradebook.DefaultMaxScore)
	rubricRepo := repository.NewRubricRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	summaryCache := service.NewSummaryCache(cacheRepo, metrics, cfg.Gradebook.SummaryCacheTTL, logr, redisClient != nil)
	editor := service.NewGradeEditor(matrix, metrics, logr)
	grading := service.NewGradingService(matrix, scores, rosterRepo, rubricRepo, editor, summaryCache, metrics, validate, logr)
	rubrics := service.NewRubricService(rubricRepo, rosterRepo, scores, metrics, logr)

	handlers := routeHandlers{
		grades:  handler.NewGradeHandler(grading),
		edits:   handler.NewEditHandler(grading),
		rubrics: handler.NewRubricHandler(rubrics),
		metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		}),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, logr, metrics, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("rubric_scale", cfg.Gradebook.RubricLevelScale),
			zap.Bool("summary_cache", summaryCache.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Fatal("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
