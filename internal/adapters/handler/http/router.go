package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ritmohq/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/ritmohq/ritmo-engine/internal/core/services"
)

type RouterDependencies struct {
	AuthHandler    *AuthHandler
	HabitHandler   *HabitHandler
	TrackHandler   *TrackHandler
	InsightHandler *InsightHandler
	TokenService   *services.TokenService
	DB             *sqlx.DB
	Redis          *redis.Client
	StartTime      time.Time
}

// NewRouter assembles the full HTTP surface: public auth routes, the
// JWT-protected habit/track/insight routes, and a health endpoint. The
// Redis-backed rate limiter is installed only when a client is present.
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(corsMiddleware())

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", healthHandler(deps))

	apiV1 := router.Group("/api/v1")

	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.HabitHandler.RegisterRoutes(protected)
		deps.TrackHandler.RegisterRoutes(protected)
		deps.InsightHandler.RegisterRoutes(protected)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// healthHandler reports dependency reachability. The endpoint returns
// 503 when the database is down; a missing Redis only degrades the
// response since the service runs without it.
func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "connected"
		if err := deps.DB.Ping(); err != nil {
			dbStatus = "unreachable"
		}

		redisStatus := "connected"
		if deps.Redis == nil || deps.Redis.Ping(c.Request.Context()).Err() != nil {
			redisStatus = "unreachable"
		}

		status := "ok"
		statusCode := http.StatusOK
		if dbStatus == "unreachable" {
			status = "down"
			statusCode = http.StatusServiceUnavailable
		} else if redisStatus == "unreachable" {
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"service":  "ritmo-engine",
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
