package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/handlers"
	"github.com/01moynul/quillcraft-golang/internal/middleware"
)

// CORSMiddleware allows the configured frontends to call the API with a
// bearer token.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRouter(h *handlers.Handlers, tokens middleware.TokenValidator, corsOrigins []string) *gin.Engine {
	router := gin.Default()

	// --- APPLY THE CORS GUARD ---
	// This must be the very first thing the router uses
	router.Use(CORSMiddleware(corsOrigins))

	v1 := router.Group("/v1")
	{
		// --- Public Routes ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)
		v1.GET("/plans", h.ListPlans)
		v1.POST("/billing/webhook", h.StripeWebhook)

		// --- Protected Routes ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(tokens, h.Sessions))
		{
			auth.POST("/logout", h.Logout)
			auth.GET("/me", h.GetMe)
			auth.GET("/me/entitlements", h.GetEntitlements)
			auth.GET("/me/dashboard", h.GetDashboard)

			auth.POST("/agents", h.CreateAgent)
			auth.GET("/agents", h.ListAgents)
			auth.GET("/agents/:id", h.GetAgent)
			auth.DELETE("/agents/:id", h.DeleteAgent)

			auth.POST("/tasks", h.CreateTask)
			auth.GET("/tasks", h.ListTasks)
			auth.GET("/tasks/:id", h.GetTask)
			auth.DELETE("/tasks/:id", h.DeleteTask)

			auth.GET("/tasks/:id/revisions", h.ListRevisions)
			auth.POST("/tasks/:id/revisions", h.SaveRevision)
			auth.POST("/tasks/:id/revisions/:index/restore", h.RestoreRevision)
			auth.PATCH("/tasks/:id/revisions/by-id/:revisionId", h.RenameRevision)
			auth.DELETE("/tasks/:id/revisions/:index", h.DeleteRevision)

			auth.POST("/tasks/:id/generate", h.Generate)
			auth.POST("/tasks/:id/rephrase", h.Rephrase)

			auth.POST("/billing/checkout", h.CreateCheckoutSession)
			auth.POST("/billing/portal", h.CreatePortalSession)
		}
	}

	return router
}
