package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/handler"
	"github.com/UniversalTze/FormBase/internal/middleware"
	"github.com/UniversalTze/FormBase/internal/service"
	"github.com/UniversalTze/FormBase/pkg/config"
	"github.com/UniversalTze/FormBase/pkg/logger"
	corsmiddleware "github.com/UniversalTze/FormBase/pkg/middleware/cors"
	reqidmiddleware "github.com/UniversalTze/FormBase/pkg/middleware/requestid"
)

type routeHandlers struct {
	forms   *handler.FormHandler
	fields  *handler.FieldHandler
	records *handler.RecordHandler
	maps    *handler.MapHandler
	exports *handler.ExportHandler
	browser *handler.BrowserHandler
	metrics *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// signed links carry their own authorisation
	api.GET("/exports/download", h.exports.Download)

	secured := api.Group("")
	secured.Use(middleware.Credentials(middleware.CredentialsConfig{
		Required: cfg.Upstream.RequireToken,
		Secret:   []byte(cfg.Upstream.JWTSecret),
	}))

	forms := secured.Group("/forms")
	forms.GET("", h.forms.List)
	forms.POST("", h.forms.Create)
	forms.GET("/:formId", h.forms.Get)
	forms.PATCH("/:formId", h.forms.Update)
	forms.DELETE("/:formId", h.forms.Delete)
	forms.GET("/:formId/fields", h.fields.List)
	forms.POST("/:formId/fields", h.fields.Create)
	forms.GET("/:formId/records", h.records.List)
	forms.POST("/:formId/records", h.records.Create)
	forms.GET("/:formId/map", h.maps.Pins)
	forms.POST("/:formId/exports", h.exports.Create)
	forms.POST("/:formId/browser", h.browser.Open)

	records := secured.Group("/records")
	records.GET("/:recordId", h.records.Get)
	records.GET("/:recordId/copy", h.records.Copy)
	records.DELETE("/:recordId", h.records.Delete)

	secured.GET("/exports/:jobId", h.exports.Status)

	browser := secured.Group("/browser/:sessionId")
	browser.GET("", h.browser.View)
	browser.DELETE("", h.browser.Close)
	browser.POST("/refresh", h.browser.Refresh)
	browser.POST("/field", h.browser.ChooseField)
	browser.POST("/operator", h.browser.ChooseOperator)
	browser.POST("/confirm", h.browser.Confirm)
	browser.POST("/cancel", h.browser.Cancel)
	browser.DELETE("/criteria", h.browser.ClearFilters)
	browser.PUT("/criteria/:fieldId", h.browser.PutCriterion)
	browser.DELETE("/criteria/:fieldId", h.browser.RemoveCriterion)
	browser.DELETE("/records/:recordId", h.browser.DeleteRecord)

	return r
}
