package handlers

import (
	"wccleanup/middleware"
	"wccleanup/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API. Cleanup operations pass token, nonce and capability checks in that order.
func RegisterRoutes(r *gin.Engine, auth services.AuthService) {
	api := r.Group("/api")

	api.GET("/health", HealthCheck)

	authed := api.Group("")
	authed.Use(middleware.RequireToken(auth))
	{
		authed.GET("/nonce", middleware.RequireCapability(auth), IssueNonce)

		cleanup := authed.Group("/cleanup")
		cleanup.Use(middleware.RequireNonce(auth), middleware.RequireCapability(auth))
		{
			cleanup.GET("/:operation", Dispatch)
			cleanup.POST("/:operation", Dispatch)
		}
	}
}
