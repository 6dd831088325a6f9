package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/client-config", s.clientConfig)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.POST("/logout", s.handleLogout)
			auth.GET("/me", s.authMiddleware(), s.handleMe)
		}

		// Browsing trips works without an account
		browse := v1.Group("")
		browse.Use(s.optionalAuthMiddleware())
		{
			browse.GET("/trips", s.getTrips)
			browse.GET("/trips/:id", s.getTrip)
		}

		protected := v1.Group("")
		protected.Use(s.authMiddleware())
		{
			trips := protected.Group("/trips")
			{
				trips.POST("", s.createTrip)
				trips.PUT("/:id", s.updateTrip)
				trips.DELETE("/:id", s.deleteTrip)
				trips.POST("/:id/join", s.joinTrip)
				trips.GET("/:id/join", s.getJoinStatus)
				trips.GET("/:id/requests", s.getTripRequests)
				trips.GET("/:id/requests/count", s.getTripRequestCount)
			}

			protected.PUT("/join-requests/:id", s.resolveJoinRequest)

			requests := protected.Group("/requests")
			{
				requests.GET("", s.getRequestInbox)
				requests.GET("/pending-count", s.getPendingRequestCount)
			}

			messages := protected.Group("/messages")
			{
				messages.GET("", s.getConversations)
				messages.POST("", s.sendMessage)
				messages.GET("/unread-count", s.getUnreadCount)
				messages.GET("/:userId", s.getConversation)
				messages.POST("/:userId/read", s.markConversationRead)
			}

			users := protected.Group("/users")
			{
				users.GET("/profile", s.getProfile)
				users.PUT("/profile", s.updateProfile)
				users.GET("/trips", s.getUserTrips)
				users.GET("/:id", s.getPublicProfile)
			}
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Route not found"))
			return
		}
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Not found"))
	})
}
