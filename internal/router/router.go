package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/vendaplan/backend/api/handler"
)

type Handlers struct {
	Schedule    *apiHandler.ScheduleHandler
	Maintenance *apiHandler.MaintenanceHandler
	Transfer    *apiHandler.TransferHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/api/v1/schedule", authMiddleware(handlers.Schedule.GetSchedule))
	r.POST("/api/v1/activities", authMiddleware(handlers.Schedule.CreateActivity))
	r.PUT("/api/v1/activities/{id}", authMiddleware(handlers.Schedule.UpdateActivity))
	r.DELETE("/api/v1/activities/{id}", authMiddleware(handlers.Schedule.DeleteActivity))

	r.POST("/api/v1/maintenance/dedup", authMiddleware(handlers.Maintenance.Deduplicate))

	r.GET("/api/v1/export", authMiddleware(handlers.Transfer.Export))
	r.POST("/api/v1/import", authMiddleware(handlers.Transfer.Import))

	return r
}
