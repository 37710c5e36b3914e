package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/confera/approvals-api/api/swagger"
	"github.com/confera/approvals-api/internal/handler"
	internalmiddleware "github.com/confera/approvals-api/internal/middleware"
	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/internal/repository"
	"github.com/confera/approvals-api/internal/service"
	"github.com/confera/approvals-api/pkg/cache"
	"github.com/confera/approvals-api/pkg/config"
	"github.com/confera/approvals-api/pkg/database"
	"github.com/confera/approvals-api/pkg/jobs"
	"github.com/confera/approvals-api/pkg/logger"
	corsmiddleware "github.com/confera/approvals-api/pkg/middleware/cors"
	reqidmiddleware "github.com/confera/approvals-api/pkg/middleware/requestid"
	"github.com/confera/approvals-api/pkg/storage"
)

// @title Confera Approvals API
// @version 1.0.0
// @description Approval workflow engine for event management
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	cacheSvc := buildCacheService(cfg, metricsSvc, logr)

	workflowRepo := repository.NewWorkflowRepository(db)
	reviewerRepo := repository.NewReviewerRepository(db)
	stakeholderRepo := repository.NewStakeholderRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	exportRepo := repository.NewExportRepository(db)

	validate := validator.New()
	workflowSvc := service.NewWorkflowService(workflowRepo, validate, logr,
		service.WithWorkflowCache(cacheSvc),
		service.WithWorkflowMetrics(metricsSvc),
	)
	reviewerSvc := service.NewReviewerService(reviewerRepo, workflowRepo, logr)
	stakeholderSvc := service.NewStakeholderService(stakeholderRepo, workflowRepo, logr)
	commentSvc := service.NewCommentService(commentRepo, workflowRepo, logr)
	historySvc := service.NewHistoryService(historyRepo, workflowRepo, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SigningSecret, cfg.Export.ResultTTL)
	exportWorker := service.NewExportWorker(exportRepo, workflowRepo, exportStore, logr)
	exportQueue := jobs.NewQueue("workflow-exports", exportWorker.Handle, jobs.QueueConfig{
		Workers: cfg.Export.Workers,
		Logger:  logr,
	})
	exportSvc := service.NewExportService(exportRepo, exportStore, exportQueue, signer, validate, logr, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Export.ResultTTL,
		CleanupInterval: cfg.Export.CleanupInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportSvc.RecoverPendingJobs(ctx)
	exportSvc.StartCleanup(ctx)

	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	reviewerHandler := handler.NewReviewerHandler(reviewerSvc, historySvc)
	stakeholderHandler := handler.NewStakeholderHandler(stakeholderSvc, historySvc)
	commentHandler := handler.NewCommentHandler(commentSvc, historySvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", readyHandler(db))
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Download is gated by the signed token, not by a bearer token.
	api.GET("/exports/download/:token", exportHandler.Download)

	api.Use(internalmiddleware.JWT(cfg.JWT))

	workflows := api.Group("/workflows")
	{
		workflows.POST("", workflowHandler.Create)
		workflows.GET("", workflowHandler.List)
		workflows.GET("/:id", workflowHandler.Get)
		workflows.PATCH("/:id", workflowHandler.Update)
		workflows.PUT("/:id/status",
			internalmiddleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin),
			workflowHandler.UpdateStatus)
		workflows.DELETE("/:id",
			internalmiddleware.RequireRoles(models.RoleAdmin),
			workflowHandler.Delete)

		workflows.POST("/:id/reviewers", reviewerHandler.Add)
		workflows.GET("/:id/reviewers", reviewerHandler.ListForWorkflow)
		workflows.DELETE("/:id/reviewers/:reviewerId", reviewerHandler.Remove)

		workflows.POST("/:id/stakeholders", stakeholderHandler.Add)
		workflows.GET("/:id/stakeholders", stakeholderHandler.ListForWorkflow)
		workflows.DELETE("/:id/stakeholders/:stakeholderId", stakeholderHandler.Remove)

		workflows.POST("/:id/comments", commentHandler.Add)
		workflows.GET("/:id/comments", commentHandler.ListForWorkflow)

		workflows.GET("/:id/history", historyHandler.ListForWorkflow)
	}

	api.POST("/exports",
		internalmiddleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin),
		exportHandler.Create)
	api.GET("/exports/:id", exportHandler.Get)

	api.PUT("/reviewers/:id", reviewerHandler.SubmitReview)
	api.PUT("/comments/:id", commentHandler.Edit)
	api.DELETE("/comments/:id", commentHandler.Remove)

	users := api.Group("/users")
	{
		users.GET("/:id/reviews", reviewerHandler.ListForUser)
		users.GET("/:id/stakes", stakeholderHandler.ListForUser)
		users.GET("/:id/comments", commentHandler.ListForUser)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// buildCacheService wires Redis when enabled. A missing Redis degrades to
// uncached reads instead of blocking startup.
func buildCacheService(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Workflows.CacheEnabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		return nil
	}
	cacheRepo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(cacheRepo, metrics, cfg.Workflows.CacheTTL, logr, true)
}

func readyHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
