package server

import (
	"usermgr/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts the user API under basePath, e.g. "/api".
func SetupRoutes(router *gin.Engine, userHandler *handlers.UserHandler, basePath string) {
	router.GET("/health", userHandler.HealthCheck)

	api := router.Group(basePath)
	{
		api.GET("/health", userHandler.HealthCheck)
		api.GET("/metrics/cache", userHandler.CacheMetrics)

		users := api.Group("/users")
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.POST("", userHandler.CreateUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}
}

// NewRouter returns a gin engine with recovery followed by middleware.
func NewRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	return router
}
