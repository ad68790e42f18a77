package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"tryst/cmd/middleware"
	"tryst/internal/service"
)

type Routers struct {
	Service service.Service
	// Mode is the gin mode, "release" unless debugging.
	Mode string
	// AllowOrigins enables credentialed CORS for the admin dashboard. Empty
	// falls back to the permissive default without cookies.
	AllowOrigins []string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware())
	app.Use(corsMiddleware(r.AllowOrigins))

	apiGroup := app.Group("/api")

	apiGroup.POST("/contact", r.Service.SubmitContact)
	apiGroup.GET("/contact", r.Service.RequireAdmin, r.Service.ListContacts)

	apiGroup.POST("/normal-registration", r.Service.SubmitRegistration)
	apiGroup.GET("/normal-registration", r.Service.RequireAdmin, r.Service.ListRegistrations)

	apiGroup.POST("/event-registration", r.Service.SubmitEventRegistration)
	apiGroup.GET("/event-registration", r.Service.RequireAdmin, r.Service.ListEventRegistrations)

	apiGroup.GET("/events", r.Service.Events)

	admin := apiGroup.Group("/admin")
	admin.POST("/login", r.Service.Login)
	admin.GET("/check-auth", r.Service.CheckAuth)
	admin.POST("/logout", r.Service.Logout)
	admin.GET("/stats", r.Service.RequireAdmin, r.Service.Stats)

	app.GET("/healthz", r.Service.Health)

	return app
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
