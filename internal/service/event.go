package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// recordEvent stores a job event and hands it to the notifiers. Failures
// are logged; the transition that produced the event has already happened.
func (s *Service) recordEvent(ctx context.Context, job *domain.DeliveryJob, eventType domain.EventType, riderID string, proof *domain.DeliveryProof) {
	payload, err := json.Marshal(domain.JobEventPayload{
		JobID:   job.ID,
		RiderID: riderID,
		Status:  job.Status,
		Proof:   proof,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal event payload", "job_id", job.ID, "error", err)
		return
	}

	event := domain.JobEvent{
		EventID: "evt_" + uuid.New().String()[:8],
		JobID:   job.ID,
		Ts:      s.now().UnixMilli(),
		Type:    eventType,
		Payload: payload,
	}
	if err := s.store.CreateJobEvent(ctx, &event); err != nil {
		s.logger.WarnContext(ctx, "failed to record job event", "job_id", job.ID, "type", eventType, "error", err)
		return
	}

	for _, n := range s.notifiers {
		n.Notify(ctx, event, job)
	}
}
