package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"jamin-backend/internal/shared/middleware"
	"jamin-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(),
	)

	// Multipart recording uploads
	router.MaxMultipartMemory = 64 << 20

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupMemberRoutes(v1, c)
		setupThemeRoutes(v1, c)
		setupCollaborationRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.MemberHandler.Register)
		auth.POST("/login", c.MemberHandler.Login)
		auth.POST("/refresh", c.MemberHandler.RefreshToken)
	}
}

// ========================================
// MEMBER ROUTES
// ========================================
func setupMemberRoutes(v1 *gin.RouterGroup, c *container.Container) {
	members := v1.Group("/members")
	{
		members.GET("/:id", c.MemberHandler.GetByID)

		authed := members.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.GET("/me", c.MemberHandler.GetMe)
			authed.PUT("/me", c.MemberHandler.UpdateMe)
			authed.POST("/me/avatar", c.MemberHandler.UploadAvatar)
		}
	}
}

// ========================================
// THEME ROUTES
// ========================================
func setupThemeRoutes(v1 *gin.RouterGroup, c *container.Container) {
	themes := v1.Group("/themes")
	{
		themes.GET("", c.ThemeHandler.List)
		themes.GET("/:id", c.ThemeHandler.Get)
		themes.GET("/:id/collaborations", c.CollabHandler.ByTheme)

		authed := themes.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.POST("", c.ThemeHandler.CreateTheme)
			authed.POST("/:id/layers", c.ThemeHandler.CreateLayer)
			authed.PATCH("/:id", c.ThemeHandler.Update)
			authed.DELETE("/:id", c.ThemeHandler.Delete)
		}
	}
}

// ========================================
// COLLABORATION ROUTES
// ========================================
func setupCollaborationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	collaborations := v1.Group("/collaborations")
	{
		collaborations.GET("", c.CollabHandler.List)
		collaborations.GET("/:id", c.CollabHandler.Get)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.GET("/collaborations/export", c.CollabHandler.Export)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		c.JSON(200, health)
	}
}
