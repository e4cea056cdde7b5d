package main

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/handlers"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	db := models.GetDB()

	// Rate limiter for credential endpoints
	loginLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", handlers.Health(db))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", loginLimiter.Middleware(), svc.authHandler.Register)
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db), middleware.AuditWrites())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Projects (listing scoped to memberships inside the service)
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)

			// Everything below runs behind the membership guard, which
			// resolves the project and the caller's membership into the
			// request context.
			project := protected.Group("/projects/:id")
			project.Use(middleware.ProjectMemberRequired(db))
			{
				manage := middleware.ProjectRoleRequired(models.ProjectRoleAdmin, models.ProjectRoleProjectAdmin)

				project.GET("", svc.projectHandler.GetByID)
				project.PUT("", manage, svc.projectHandler.Update)
				project.DELETE("", manage, svc.projectHandler.Delete)

				// Members
				project.GET("/members", svc.memberHandler.List)
				project.POST("/members", manage, svc.memberHandler.Add)
				project.PUT("/members/:memberID", manage, svc.memberHandler.UpdateRole)
				project.DELETE("/members/:memberID", manage, svc.memberHandler.Remove)

				// Tasks (plain members may still move their own tasks, the
				// service enforces that on update)
				project.GET("/tasks", svc.taskHandler.List)
				project.POST("/tasks", manage, svc.taskHandler.Create)
				project.GET("/tasks/:taskID", svc.taskHandler.GetByID)
				project.PUT("/tasks/:taskID", svc.taskHandler.Update)
				project.DELETE("/tasks/:taskID", manage, svc.taskHandler.Delete)

				// Subtasks
				project.GET("/tasks/:taskID/subtasks", svc.subtaskHandler.List)
				project.POST("/tasks/:taskID/subtasks", manage, svc.subtaskHandler.Create)
				project.PUT("/tasks/:taskID/subtasks/:subtaskID", svc.subtaskHandler.Update)
				project.DELETE("/tasks/:taskID/subtasks/:subtaskID", manage, svc.subtaskHandler.Delete)

				// Attachments
				project.GET("/tasks/:taskID/attachments", svc.attachmentHandler.List)
				project.POST("/tasks/:taskID/attachments", svc.attachmentHandler.Upload)
				project.GET("/tasks/:taskID/attachments/:attachmentID", svc.attachmentHandler.Download)
				project.DELETE("/tasks/:taskID/attachments/:attachmentID", manage, svc.attachmentHandler.Delete)

				// Notes (author-or-admin rule enforced in the service)
				project.GET("/notes", svc.noteHandler.List)
				project.POST("/notes", svc.noteHandler.Create)
				project.GET("/notes/:noteID", svc.noteHandler.GetByID)
				project.PUT("/notes/:noteID", svc.noteHandler.Update)
				project.DELETE("/notes/:noteID", svc.noteHandler.Delete)
			}

			// System admin surface
			admin := protected.Group("", middleware.RoleRequired(models.SystemRoleAdmin))
			{
				admin.GET("/users", svc.userHandler.List)
				admin.GET("/users/:userID", svc.userHandler.GetByID)
				admin.PUT("/users/:userID/active", svc.userHandler.SetActive)
				admin.PUT("/users/:userID/role", svc.userHandler.SetRole)
				admin.GET("/audit-logs", svc.auditLogHandler.List)
			}
		}
	}
}
