package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sma-timetable/scheduler-core/api/swagger"
	internalhandler "github.com/sma-timetable/scheduler-core/internal/handler"
	internalmiddleware "github.com/sma-timetable/scheduler-core/internal/middleware"
	"github.com/sma-timetable/scheduler-core/internal/repository"
	"github.com/sma-timetable/scheduler-core/internal/service"
	"github.com/sma-timetable/scheduler-core/internal/solver"
	"github.com/sma-timetable/scheduler-core/pkg/cache"
	"github.com/sma-timetable/scheduler-core/pkg/config"
	"github.com/sma-timetable/scheduler-core/pkg/database"
	"github.com/sma-timetable/scheduler-core/pkg/jobs"
	"github.com/sma-timetable/scheduler-core/pkg/logger"
	corsmiddleware "github.com/sma-timetable/scheduler-core/pkg/middleware/cors"
	reqidmiddleware "github.com/sma-timetable/scheduler-core/pkg/middleware/requestid"
)

// @title Scheduler Core API
// @version 1.0
// @description Timetable solver service: feasibility search plus an evolutionary optimizer, exposed over HTTP with async job support.
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("result cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	runRepo := repository.NewSolverRunRepository(db)

	defaultOptions := solver.Options{
		FeasibilityTimeout: cfg.Scheduler.FeasibilityTimeout,
		PopulationSize:     cfg.Scheduler.PopulationSize,
		Generations:        cfg.Scheduler.Generations,
		CxProb:             cfg.Scheduler.CxProb,
		MutProb:            cfg.Scheduler.MutProb,
		Seed:               cfg.Scheduler.Seed,
	}

	// The queue's handler forwards to runSvc.JobHandler(), which can only be
	// built once runSvc exists; runSvc in turn needs the queue to enqueue
	// async jobs. The indirection below breaks that cycle.
	var runSvc *service.ScheduleRunService
	solveQueue := jobs.NewQueue("solve", func(ctx context.Context, job jobs.Job) error {
		return runSvc.JobHandler()(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	solveQueue.Start(queueCtx)
	defer func() {
		cancelQueue()
		solveQueue.Stop()
	}()

	runSvc = service.NewScheduleRunService(runRepo, redisClient, cfg.Scheduler.ResultCacheTTL, solveQueue, logr, metricsSvc, defaultOptions)
	runHandler := internalhandler.NewScheduleRunHandler(runSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	schedules := api.Group("/schedules")
	schedules.POST("/solve", runHandler.Solve)
	schedules.GET("/runs", runHandler.ListRuns)
	schedules.GET("/runs/:id", runHandler.GetRun)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
