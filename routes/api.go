package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/controllers"
	"github.com/maxparsons123/happy-ride-helper-sub002/helpers/utils"
)

// SetupAPIRoutes wires the versioned API surface.
func SetupAPIRoutes(router *gin.Engine, dispatchController *controllers.DispatchController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		dispatch := v1.Group("/dispatch")
		{
			dispatch.POST("/resolve", dispatchController.Resolve)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/reference/seed", adminController.SeedReference)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
		}

		v1.GET("/health", dispatchController.HealthCheck)
	}
}

// SetupHealthRoutes exposes the unversioned probes.
func SetupHealthRoutes(router *gin.Engine, dispatchController *controllers.DispatchController) {
	router.GET("/health", dispatchController.HealthCheck)
	router.GET("/ready", dispatchController.HealthCheck)
	router.GET("/live", dispatchController.HealthCheck)
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, dispatchController *controllers.DispatchController, adminController *controllers.AdminController) {
	setupMiddleware(router)
	SetupHealthRoutes(router, dispatchController)
	SetupAPIRoutes(router, dispatchController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(requestID())
}

// requestID tags every response so a transcript can be matched to its
// server logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateUUID()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
