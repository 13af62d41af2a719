package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/service"
)

// TransitionRequest is the body of the job transition endpoints.
type TransitionRequest struct {
	RiderID    string `json:"rider_id"`
	ProofPhoto string `json:"proof_photo,omitempty"`
	ProofOTP   string `json:"proof_otp,omitempty"`
}

// CreateJob creates a delivery job.
// POST /v1/jobs
func (h *Handler) CreateJob(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	job, err := h.service.CreateJob(ctx, req)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusCreated, job)
}

// GetJob gets a job by ID.
// GET /v1/jobs/:job_id
func (h *Handler) GetJob(c echo.Context) error {
	job, err := h.service.GetJob(c.Request().Context(), c.Param("job_id"))
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// ListJobs lists jobs.
// GET /v1/jobs?status=requested,accepted&rider_id=&limit=
func (h *Handler) ListJobs(c echo.Context) error {
	filter := domain.JobFilter{
		RiderID: c.QueryParam("rider_id"),
		Limit:   queryLimit(c, 50, 200),
	}
	if s := c.QueryParam("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			status := domain.JobStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status: " + string(status)})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	jobs, err := h.service.ListJobs(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if jobs == nil {
		jobs = []domain.DeliveryJob{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

// GetJobEvents retrieves the event history of a job.
// GET /v1/jobs/:job_id/events
func (h *Handler) GetJobEvents(c echo.Context) error {
	events, err := h.service.GetJobEvents(c.Request().Context(), c.Param("job_id"), queryLimit(c, 100, 1000))
	if err != nil {
		return jobError(c, err)
	}
	if events == nil {
		events = []domain.JobEvent{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// AcceptJob assigns a rider to a job.
// POST /v1/jobs/:job_id/accept
func (h *Handler) AcceptJob(c echo.Context) error {
	req, msg := bindTransition(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	if _, err := h.service.ActiveRider(c.Request().Context(), req.RiderID); err != nil {
		return jobError(c, err)
	}
	job, err := h.service.AcceptJob(c.Request().Context(), c.Param("job_id"), req.RiderID)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// PickupJob marks a job as picked up.
// POST /v1/jobs/:job_id/pickup
func (h *Handler) PickupJob(c echo.Context) error {
	req, msg := bindTransition(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	if _, err := h.service.ActiveRider(c.Request().Context(), req.RiderID); err != nil {
		return jobError(c, err)
	}
	job, err := h.service.PickupJob(c.Request().Context(), c.Param("job_id"), req.RiderID)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// DeliverJob marks a job as delivered.
// POST /v1/jobs/:job_id/deliver
func (h *Handler) DeliverJob(c echo.Context) error {
	req, msg := bindTransition(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	proof := domain.DeliveryProof{Photo: req.ProofPhoto, OTP: req.ProofOTP}
	if _, err := h.service.ActiveRider(c.Request().Context(), req.RiderID); err != nil {
		return jobError(c, err)
	}
	job, err := h.service.DeliverJob(c.Request().Context(), c.Param("job_id"), req.RiderID, proof)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// CompleteJob completes a delivered job.
// POST /v1/jobs/:job_id/complete
func (h *Handler) CompleteJob(c echo.Context) error {
	job, err := h.service.CompleteJob(c.Request().Context(), c.Param("job_id"))
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// bindTransition decodes the body and returns a message describing why it
// is unusable, or "".
func bindTransition(c echo.Context) (*TransitionRequest, string) {
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return nil, "invalid request body"
	}
	req.RiderID = strings.TrimSpace(req.RiderID)
	if req.RiderID == "" {
		return nil, "rider_id is required"
	}
	return &req, ""
}

func jobError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrRiderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRiderInactive):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrJobConflict), errors.Is(err, service.ErrTransitionDenied):
		status = http.StatusConflict
	case errors.Is(err, service.ErrProofRequired):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidJob), errors.Is(err, service.ErrRiderRequired):
		status = http.StatusBadRequest
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
