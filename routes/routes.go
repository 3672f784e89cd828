package routes

import (
	"github.com/gin-gonic/gin"

	"document-portal-gateway/controllers"
	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
)

func SetupRoutes(router *gin.Engine, gate *services.SessionGate) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/auth/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Document Portal Gateway is running",
				})
			})
		}

		// Protected routes (require a gateway session)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(gate))
		{
			protected.POST("/auth/logout", controllers.Logout)
			protected.GET("/auth/me", controllers.Me)

			// Own uploads: both roles see and manage their own files
			files := protected.Group("/files")
			{
				files.GET("/view", controllers.MyFilesView)
				files.POST("", controllers.Upload)
				files.PATCH("/:id", controllers.UpdateFile)
				files.DELETE("/:id", controllers.DeleteFile)
			}

			// Persisted UI preferences
			protected.GET("/preferences/:key", controllers.GetPreference)
			protected.PUT("/preferences/:key", controllers.PutPreference)

			// Admin-only surface
			admin := protected.Group("")
			admin.Use(middleware.RequireRole(gate, models.RoleAdmin))
			{
				admin.GET("/files/all/view", controllers.AllFilesView)
				admin.PATCH("/files/:id/status", controllers.UpdateStatus)
				admin.GET("/files/stats", controllers.Stats)

				admin.GET("/reports/daily", controllers.DailyReport)

				admin.GET("/users", controllers.ListUsers)
				admin.GET("/users/regular", controllers.ListRegularUsers)
				admin.POST("/users", controllers.CreateUser)
				admin.PATCH("/users/:id", controllers.UpdateUser)
				admin.DELETE("/users/:id", controllers.DeleteUser)
			}
		}
	}
}
