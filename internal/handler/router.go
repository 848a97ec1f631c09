package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/middleware"
	"github.com/noah-isme/schoolbus-api/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Students      *StudentHandler
	Buses         *BusHandler
	Rounds        *RoundHandler
	Locations     *LocationHandler
	Notifications *NotificationHandler
	Absences      *AbsenceHandler
	ActivityLogs  *ActivityLogHandler
	Dashboard     *DashboardHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts probes at the root and the REST surface under prefix.
// Everything under prefix except login requires a bearer token.
func RegisterRoutes(r gin.IRouter, prefix string, tokens middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	driver := middleware.RequireRoles(models.RoleAdmin, models.RoleDriver)

	secured.GET("/auth/me", h.Auth.Me)

	users := secured.Group("/users")
	users.GET("", admin, h.Users.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf), h.Users.Get)
	users.POST("", admin, h.Users.Create)
	users.PUT("/:id", admin, h.Users.Update)
	users.DELETE("/:id", admin, h.Users.Delete)

	students := secured.Group("/students")
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.POST("", admin, h.Students.Create)
	students.PUT("/:id", admin, h.Students.Update)
	students.DELETE("/:id", admin, h.Students.Delete)

	buses := secured.Group("/buses")
	buses.GET("", h.Buses.List)
	buses.GET("/:id", h.Buses.Get)
	buses.GET("/:id/locations", h.Locations.Latest)
	buses.POST("", admin, h.Buses.Create)
	buses.PUT("/:id", admin, h.Buses.Update)
	buses.DELETE("/:id", admin, h.Buses.Delete)

	rounds := secured.Group("/bus-rounds")
	rounds.GET("", h.Rounds.List)
	rounds.GET("/:id", h.Rounds.Get)
	rounds.POST("", admin, h.Rounds.Create)
	rounds.PUT("/:id", admin, h.Rounds.Update)
	rounds.DELETE("/:id", admin, h.Rounds.Delete)
	rounds.POST("/:id/start", driver, h.Rounds.Start)
	rounds.POST("/:id/stop", driver, h.Rounds.Stop)
	rounds.GET("/:id/students", h.Rounds.Students)
	rounds.POST("/:id/students", admin, h.Rounds.AssignStudent)
	rounds.DELETE("/:id/students/:studentId", admin, h.Rounds.RemoveStudent)

	secured.POST("/locations", h.Locations.Record)

	secured.GET("/notifications", h.Notifications.List)
	secured.POST("/notifications", h.Notifications.Send)

	secured.GET("/absences", h.Absences.List)
	secured.POST("/absences", h.Absences.Record)

	logs := secured.Group("/activity-logs", admin)
	logs.GET("", h.ActivityLogs.List)
	logs.GET("/export", h.ActivityLogs.Export)

	secured.GET("/dashboard/stats", admin, h.Dashboard.Stats)
}
