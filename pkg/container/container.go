package container

import (
	"context"
	"fmt"
	"time"

	"carrental-backend/internal/config"
	"carrental-backend/internal/domains/auth"
	carHandler "carrental-backend/internal/domains/car/handler"
	carRepo "carrental-backend/internal/domains/car/repository"
	carService "carrental-backend/internal/domains/car/service"
	infraCache "carrental-backend/internal/infrastructure/cache"
	"carrental-backend/internal/infrastructure/database"
	"carrental-backend/internal/infrastructure/storage"
	"carrental-backend/pkg/besteffort"
	"carrental-backend/pkg/cache"
	"carrental-backend/pkg/jwt"
	"carrental-backend/pkg/logger"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the application.
// Order of initialization: config, infrastructure, repositories, services, handlers.
type Container struct {
	// INFRASTRUCTURE LAYER
	Config         *config.Config
	DB             *database.PostgresDB
	Redis          *infraCache.RedisCache // nil when caching is disabled or Redis is unreachable
	Cache          cache.Cache
	Storage        *storage.MinIOStorage
	ImageProcessor *storage.ImageProcessor
	JWTManager     *jwt.Manager
	BestEffort     *besteffort.Runner

	// REPOSITORY LAYER
	CarRepo carRepo.Repository

	// SERVICE LAYER
	CarService   carService.Service
	ImageService carService.ImageService
	AuthService  auth.Service

	// HANDLER LAYER
	CarHandler  *carHandler.CarHandler
	AuthHandler *auth.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the whole dependency graph
func NewContainer() (*Container, error) {
	c := &Container{}

	// STEP 1: CONFIGURATION
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment)
	logger.Info("config loaded", map[string]interface{}{"environment": cfg.App.Environment})

	// STEP 2: INFRASTRUCTURE
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// STEP 3-5: REPOSITORIES, SERVICES, HANDLERS
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", nil)
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// Database
	dbConfig, err := config.LoadDatabaseConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database schema applied", nil)
	}

	// Cache: Redis failure is not critical, reads fall back to the database
	if cfg.Cache.Enabled {
		redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, caching disabled", map[string]interface{}{"error": err.Error()})
			_ = redisCache.Close()
		} else {
			c.Redis = redisCache
			c.Cache = redisCache
		}
	}

	// Object storage
	minioStorage, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = minioStorage
	c.ImageProcessor = storage.NewImageProcessor()

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	c.BestEffort = besteffort.NewRunner(besteffort.LogReporter{})
	return nil
}

func (c *Container) initRepositories() {
	c.CarRepo = carRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	c.CarService = carService.NewCarService(
		c.CarRepo,
		c.Storage,
		c.Cache,
		database.NewPgErrorTranslator(),
		c.BestEffort,
		carService.Options{CacheTTL: c.Config.Cache.TTL},
	)
	c.ImageService = carService.NewImageUploadService(c.ImageProcessor, c.Storage)
	c.AuthService = auth.NewAdminAuthService(c.Config.Admin, c.JWTManager)
}

func (c *Container) initHandlers() {
	c.CarHandler = carHandler.NewCarHandler(c.CarService, c.ImageService)
	c.AuthHandler = auth.NewHandler(c.AuthService)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup releases connections; safe on a partially built container
func (c *Container) Cleanup() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	logger.Info("container cleaned up", nil)
}
