package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-gradebook/api/swagger"
	"github.com/noah-isme/sma-gradebook/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/requestid"
)

type routeHandlers struct {
	grades  *handler.GradeHandler
	edits   *handler.EditHandler
	rubrics *handler.RubricHandler
	metrics *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	grades := api.Group("/grades")
	grades.GET("", h.grades.List)
	grades.POST("/bulk", h.grades.Bulk)
	grades.POST("/bulk/rubric", h.grades.BulkRubric)
	grades.GET("/:studentId/:assignmentId", h.grades.Get)
	grades.PUT("/:studentId/:assignmentId", h.grades.Commit)
	grades.DELETE("/:studentId/:assignmentId", h.grades.Delete)
	grades.PUT("/:studentId/:assignmentId/points", h.grades.RecordPoints)
	grades.PUT("/:studentId/:assignmentId/comment", h.grades.SetComment)
	grades.PUT("/:studentId/:assignmentId/status", h.grades.SetStatus)

	api.GET("/students/:studentId/summary", h.grades.StudentSummary)

	edit := api.Group("/gradebook/edit")
	edit.GET("", h.edits.Session)
	edit.POST("", h.edits.Begin)
	edit.POST("/commit", h.edits.Commit)
	edit.POST("/cancel", h.edits.Cancel)

	selections := api.Group("/rubric-selections/:studentId/:assignmentId")
	selections.GET("", h.rubrics.Selections)
	selections.PUT("", h.rubrics.SaveSelections)
	selections.GET("/score", h.rubrics.Score)

	return r
}
