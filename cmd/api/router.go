package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"carrental-backend/internal/shared/middleware"
	"carrental-backend/pkg/container"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipart uploads above this spill to disk
const maxMultipartMemory = 10 << 20

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.CORS(c.Config.App.CORSOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupCarRoutes(v1, c)
		setupAdminCarRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.AuthHandler.Login)
	}
}

// ========================================
// PUBLIC CAR ROUTES
// ========================================
func setupCarRoutes(v1 *gin.RouterGroup, c *container.Container) {
	cars := v1.Group("/cars")
	{
		cars.GET("/fleet", c.CarHandler.ListFleet)
		cars.GET("/categories", c.CarHandler.ListCategories)
		cars.GET("/slug/:slug", c.CarHandler.GetCarBySlug)
		cars.GET("/:id/related", c.CarHandler.GetRelatedCars)
	}
}

// ========================================
// ADMIN CAR ROUTES
// ========================================
func setupAdminCarRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.GET("/cars", c.CarHandler.ListAdminCars)
		admin.POST("/cars", c.CarHandler.CreateCar)
		admin.POST("/cars/images", c.CarHandler.UploadImage)
		admin.GET("/cars/:id", c.CarHandler.GetCar)
		admin.PATCH("/cars/:id", c.CarHandler.UpdateCar)
		admin.DELETE("/cars/:id", c.CarHandler.DeleteCar)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
		} else if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = fmt.Sprintf("error: %v", err)
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disabled"
		} else if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = fmt.Sprintf("error: %v", err)
		}

		// Check object storage
		storageStatus := "ok"
		if appCtx.Storage == nil {
			storageStatus = "disconnected"
		} else if err := appCtx.Storage.HealthCheck(ctx); err != nil {
			storageStatus = fmt.Sprintf("error: %v", err)
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
			health["status"] = "degraded"
		} else if (redisStatus != "ok" && redisStatus != "disabled") || storageStatus != "ok" {
			health["status"] = "degraded"
		}

		c.JSON(statusCode, health)
	}
}
