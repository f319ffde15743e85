// Package app wires configuration, storage and services for the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/gateway"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
)

// Container holds the long-lived dependencies of one process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB

	Metrics      *service.MetricsService
	Cache        *service.CacheService
	Query        *service.QueryService
	Enrollments  *service.EnrollmentEngine
	Reservations *service.ReservationEngine
	Sync         *service.SyncService
	Tokens       *service.TokenService
	Export       *service.ExportService

	cacheRepo *repository.CacheRepository
}

// New connects to Postgres (and Redis when the catalog cache is enabled) and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Bootstrap.ApplySchema {
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Metrics: service.NewMetricsService()}

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			c.cacheRepo = repository.NewCacheRepository(client, logger)
			cacheRepo = c.cacheRepo
		}
	}
	c.Cache = service.NewCacheService(cacheRepo, c.Metrics, cfg.Catalog.CacheTTL, logger, cacheRepo != nil)

	c.wireServices(db)
	return c, nil
}

func (c *Container) wireServices(db *sqlx.DB) {
	cfg := c.Config
	logger := c.Logger
	rules := service.RulesFromConfig(cfg.Academic)

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	items := repository.NewLibraryItemRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	reservations := repository.NewReservationRepository(db)
	system := repository.NewSystemRepository(db)

	c.Query = service.NewQueryService(students, courses, items, c.Cache, logger.Named("query"))
	c.Enrollments = service.NewEnrollmentEngine(students, courses, enrollments, db, c.Cache, c.Metrics, rules, logger.Named("enrollment"))
	c.Reservations = service.NewReservationEngine(students, items, reservations, db, c.Cache, c.Metrics, rules, logger.Named("reservation"))
	c.Sync = service.NewSyncService(
		gateway.NewClient(cfg.Upstream, logger.Named("gateway")),
		students, courses, items, system, db, c.Cache, c.Metrics, logger.Named("sync"),
	)
	c.Tokens = NewTokenService(cfg, logger)
	c.Export = service.NewExportService(students, c.Enrollments, rules, logger.Named("export"), nil, nil)
}

// NewTokenService builds the operator token signer. It needs no database.
func NewTokenService(cfg *config.Config, logger *zap.Logger) *service.TokenService {
	return service.NewTokenService(validator.New(), logger.Named("tokens"), service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})
}

// Close releases database and cache connections.
func (c *Container) Close() {
	if c.cacheRepo != nil {
		_ = c.cacheRepo.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
