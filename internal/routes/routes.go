package routes

import (
	"taskdesk-api/internal/handlers"
	"taskdesk-api/internal/logging"
	"taskdesk-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(h *handlers.Handler, authn middleware.Authenticator) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(logging.GinMiddleware(func(c *gin.Context) bool {
		return c.FullPath() == "/health"
	}))

	// Health check endpoint
	ginRouter.GET("/health", handlers.Health)

	api := ginRouter.Group("/api")

	// Public routes (no authentication required)
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuth(authn))
	{
		protectedRoutes.POST("/auth/logout", h.Logout)
		protectedRoutes.GET("/ws", h.WebSocket)

		// User endpoints
		protectedRoutes.GET("/users/me", h.Me)
		protectedRoutes.PUT("/users/profile", h.UpdateProfile)
		protectedRoutes.PUT("/users/password", h.ChangePassword)
		protectedRoutes.GET("/users/:id", h.GetUser)

		// Task endpoints
		protectedRoutes.GET("/tasks", h.ListTasks)
		protectedRoutes.POST("/tasks", h.CreateTask)
		protectedRoutes.GET("/tasks/:id", h.GetTask)
		protectedRoutes.PUT("/tasks/:id", h.UpdateTask)
		protectedRoutes.DELETE("/tasks/:id", h.DeleteTask)
		protectedRoutes.POST("/tasks/:id/assign", h.AssignTask)
		protectedRoutes.GET("/stats/:userid", h.TaskStats)

		// Query endpoints
		protectedRoutes.GET("/queries", h.ListQueries)
		protectedRoutes.POST("/queries", h.CreateQuery)
		protectedRoutes.GET("/queries/:id", h.GetQuery)
		protectedRoutes.PUT("/queries/:id", h.UpdateQuery)
		protectedRoutes.DELETE("/queries/:id", h.DeleteQuery)
		protectedRoutes.POST("/queries/:id/comments", h.AddComment)
	}

	// Admin routes
	adminRoutes := protectedRoutes.Group("")
	adminRoutes.Use(middleware.RequireAdmin())
	{
		adminRoutes.GET("/users", h.ListUsers)
		adminRoutes.GET("/tasks/users", h.ListTaskAssignees)
		adminRoutes.GET("/queries/users", h.ListQueryAssignees)
	}

	return ginRouter
}
