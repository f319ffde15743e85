package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

// NewRouter registers every HTTP route served by the api-gateway.
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, corsmiddleware.RouteMethods(r)))
	r.Use(middleware.Metrics(c.Metrics, "/metrics"))

	var pinger handler.Pinger
	if c.DB != nil {
		pinger = c.DB
	}
	ops := handler.NewMetricsHandler(c.Metrics, pinger)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	catalog := handler.NewCatalogHandler(c.Query)
	enrollment := handler.NewEnrollmentHandler(c.Enrollments, c.Export)
	reservation := handler.NewReservationHandler(c.Reservations)
	admin := handler.NewAdminHandler(c.Sync, c.Metrics, c.Logger.Named("admin"))

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.OptionalJWT(c.Tokens))

	api.GET("/students", catalog.ListStudents)
	api.GET("/students/:id", catalog.GetStudent)
	api.GET("/courses", catalog.ListCourses)
	api.GET("/courses/programs", catalog.ListPrograms)
	api.GET("/courses/:id", catalog.GetCourse)
	api.GET("/library-items", catalog.ListLibraryItems)
	api.GET("/library-items/:id", catalog.GetLibraryItem)

	api.GET("/students/:id/enrollment", enrollment.Get)
	api.GET("/students/:id/enrollment/export", enrollment.Export)
	api.POST("/students/:id/enrollment/courses", enrollment.AddCourse)
	api.DELETE("/students/:id/enrollment/courses/:courseId", enrollment.DropCourse)

	api.GET("/students/:id/reservations", reservation.List)
	api.POST("/students/:id/reservations", reservation.Reserve)
	api.DELETE("/students/:id/reservations/:itemId", reservation.Cancel)

	adminGroup := api.Group("/admin", middleware.JWT(c.Tokens), middleware.RequireRoles(models.RoleAdmin))
	adminGroup.POST("/initialize", admin.Initialize)
	adminGroup.POST("/reset", admin.Reset)
	adminGroup.POST("/students/:id/sync", admin.SyncStudent)
	adminGroup.GET("/metrics", admin.Metrics)

	return r
}
