// Package v1 provides the REST API for delivery jobs, uploads and rider
// command history.
package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/makolaonline/whatsapp-router/internal/service"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Delivery jobs
	e.POST("/v1/jobs", h.CreateJob)
	e.GET("/v1/jobs", h.ListJobs)
	e.GET("/v1/jobs/:job_id", h.GetJob)
	e.GET("/v1/jobs/:job_id/events", h.GetJobEvents)
	e.POST("/v1/jobs/:job_id/accept", h.AcceptJob)
	e.POST("/v1/jobs/:job_id/pickup", h.PickupJob)
	e.POST("/v1/jobs/:job_id/deliver", h.DeliverJob)
	e.POST("/v1/jobs/:job_id/complete", h.CompleteJob)

	// Uploads and rider history
	e.GET("/v1/uploads", h.ListUploads)
	e.GET("/v1/riders/:rider_id/commands", h.ListRiderCommands)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func queryLimit(c echo.Context, def, max int) int {
	limit := def
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
