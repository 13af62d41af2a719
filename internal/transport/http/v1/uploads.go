package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// ListUploads lists product upload drafts.
// GET /v1/uploads?seller_id=&status=pending&limit=
func (h *Handler) ListUploads(c echo.Context) error {
	status := domain.UploadStatus(c.QueryParam("status"))
	switch status {
	case "", domain.UploadStatusPending, domain.UploadStatusPublished, domain.UploadStatusRejected:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status: " + string(status)})
	}

	drafts, err := h.service.ListUploads(c.Request().Context(), c.QueryParam("seller_id"), status, queryLimit(c, 50, 200))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if drafts == nil {
		drafts = []domain.ProductUploadDraft{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"uploads": drafts,
	})
}

// ListRiderCommands lists the chat commands a rider sent.
// GET /v1/riders/:rider_id/commands
func (h *Handler) ListRiderCommands(c echo.Context) error {
	logs, err := h.service.ListCommandLogs(c.Request().Context(), c.Param("rider_id"), queryLimit(c, 20, 200))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if logs == nil {
		logs = []domain.CommandLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"commands": logs,
	})
}
