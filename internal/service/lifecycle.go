package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/repository"
	"github.com/makolaonline/whatsapp-router/policy"
)

// CreateJobRequest is a seller's request for a delivery.
type CreateJobRequest struct {
	SellerID        string  `json:"seller_id"`
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	BuyerContact    string  `json:"buyer_contact"`
	QuotedFee       float64 `json:"quoted_fee"`
	DeliveryNote    string  `json:"delivery_note"`
}

// CreateJob creates a requested delivery job.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*domain.DeliveryJob, error) {
	req.PickupLocation = strings.TrimSpace(req.PickupLocation)
	req.DropoffLocation = strings.TrimSpace(req.DropoffLocation)
	if req.PickupLocation == "" || req.DropoffLocation == "" {
		return nil, fmt.Errorf("%w: pickup_location and dropoff_location are required", ErrInvalidJob)
	}
	if req.QuotedFee < 0 {
		return nil, fmt.Errorf("%w: quoted_fee must not be negative", ErrInvalidJob)
	}

	job := &domain.DeliveryJob{
		ID:              uuid.New().String(),
		SellerID:        req.SellerID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		BuyerContact:    req.BuyerContact,
		QuotedFee:       req.QuotedFee,
		DeliveryNote:    req.DeliveryNote,
		Status:          domain.JobStatusRequested,
		CreatedAt:       s.now(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.recordEvent(ctx, job, domain.EventTypeJobCreated, "", nil)
	return job, nil
}

// GetJob returns a job by its full id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.DeliveryJob, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// ResolveJob finds a job by full id or by a unique id prefix, as riders
// only ever see the first JobIDPrefixLen characters.
func (s *Service) ResolveJob(ctx context.Context, ref string) (*domain.DeliveryJob, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, ErrJobNotFound
	}
	job, err := s.store.GetJob(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job != nil {
		return job, nil
	}

	jobs, err := s.store.FindJobsByPrefix(ctx, ref, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	switch len(jobs) {
	case 0:
		return nil, ErrJobNotFound
	case 1:
		return &jobs[0], nil
	default:
		return nil, ErrAmbiguousJobID
	}
}

// ListJobs lists jobs matching filter.
func (s *Service) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.DeliveryJob, error) {
	return s.store.ListJobs(ctx, filter)
}

// GetJobEvents returns a job's event history.
func (s *Service) GetJobEvents(ctx context.Context, jobID string, limit int) ([]domain.JobEvent, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.GetJobEvents(ctx, jobID, limit)
}

// ActiveRider loads a registered rider who is allowed to take jobs.
func (s *Service) ActiveRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	if strings.TrimSpace(riderID) == "" {
		return nil, ErrRiderRequired
	}
	rider, err := s.store.GetRider(ctx, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rider: %w", err)
	}
	if rider == nil {
		return nil, ErrRiderNotFound
	}
	if rider.Status != "" && rider.Status != domain.RiderStatusActive {
		return nil, ErrRiderInactive
	}
	return rider, nil
}

// AcceptJob assigns riderID to a requested job. Only one rider can win: the
// assignment is a conditional write on status and rider.
func (s *Service) AcceptJob(ctx context.Context, jobID, riderID string) (*domain.DeliveryJob, error) {
	if strings.TrimSpace(riderID) == "" {
		return nil, ErrRiderRequired
	}
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.checkPolicy(ctx, job, domain.JobActionAccept, riderID, false); err != nil {
		if !errors.Is(err, ErrTransitionDenied) {
			return nil, err
		}
		s.recordEvent(ctx, job, domain.EventTypeJobAcceptConflict, riderID, nil)
		return nil, &TransitionError{Err: ErrJobConflict, Reason: denialReason(err)}
	}

	ok, err := s.store.ConditionalAcceptJob(ctx, job.ID, riderID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to accept job: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "accept lost race", "job_id", job.ID, "rider_id", riderID)
		s.recordEvent(ctx, job, domain.EventTypeJobAcceptConflict, riderID, nil)
		return nil, &TransitionError{Err: ErrJobConflict, Reason: "job already taken"}
	}

	return s.afterTransition(ctx, job.ID, domain.EventTypeJobAccepted, riderID, nil)
}

// PickupJob marks an accepted job as picked up by its rider.
func (s *Service) PickupJob(ctx context.Context, jobID, riderID string) (*domain.DeliveryJob, error) {
	if strings.TrimSpace(riderID) == "" {
		return nil, ErrRiderRequired
	}
	return s.transition(ctx, jobID, riderID, domain.JobActionPickup, nil)
}

// DeliverJob marks a picked up job as delivered. A photo or an OTP is required.
func (s *Service) DeliverJob(ctx context.Context, jobID, riderID string, proof domain.DeliveryProof) (*domain.DeliveryJob, error) {
	if strings.TrimSpace(riderID) == "" {
		return nil, ErrRiderRequired
	}
	if proof.Empty() {
		return nil, ErrProofRequired
	}
	return s.transition(ctx, jobID, riderID, domain.JobActionDeliver, &proof)
}

// CompleteJob closes a delivered job.
func (s *Service) CompleteJob(ctx context.Context, jobID string) (*domain.DeliveryJob, error) {
	return s.transition(ctx, jobID, "", domain.JobActionComplete, nil)
}

type actionRule struct {
	from  domain.JobStatus
	to    domain.JobStatus
	event domain.EventType
	// riderBound transitions may only be made by the assigned rider.
	riderBound bool
}

var actionRules = map[domain.JobAction]actionRule{
	domain.JobActionPickup:   {from: domain.JobStatusAccepted, to: domain.JobStatusPickedUp, event: domain.EventTypeJobPickedUp, riderBound: true},
	domain.JobActionDeliver:  {from: domain.JobStatusPickedUp, to: domain.JobStatusDelivered, event: domain.EventTypeJobDelivered, riderBound: true},
	domain.JobActionComplete: {from: domain.JobStatusDelivered, to: domain.JobStatusCompleted, event: domain.EventTypeJobCompleted},
}

func (s *Service) transition(ctx context.Context, jobID, riderID string, action domain.JobAction, proof *domain.DeliveryProof) (*domain.DeliveryJob, error) {
	rule, ok := actionRules[action]
	if !ok {
		return nil, fmt.Errorf("unknown job action %q", action)
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPolicy(ctx, job, action, riderID, proof != nil && !proof.Empty()); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateJobStatus(ctx, repository.JobStatusUpdate{
		JobID:        job.ID,
		From:         rule.from,
		To:           rule.to,
		RiderID:      riderID,
		RequireRider: rule.riderBound,
		Proof:        proof,
		At:           s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if !updated {
		return nil, &TransitionError{Err: ErrJobConflict, Reason: "job changed while updating"}
	}

	return s.afterTransition(ctx, job.ID, rule.event, riderID, proof)
}

func (s *Service) checkPolicy(ctx context.Context, job *domain.DeliveryJob, action domain.JobAction, riderID string, hasProof bool) error {
	if s.policyEngine == nil {
		return nil
	}
	assigned := ""
	if job.RiderID != nil {
		assigned = *job.RiderID
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Action:        action,
		Status:        job.Status,
		AssignedRider: assigned,
		ActorRider:    riderID,
		HasProof:      hasProof,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate transition policy: %w", err)
	}
	if !decision.Allow {
		return &TransitionError{Err: ErrTransitionDenied, Reason: decision.Reason}
	}
	return nil
}

func (s *Service) afterTransition(ctx context.Context, jobID string, eventType domain.EventType, riderID string, proof *domain.DeliveryProof) (*domain.DeliveryJob, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job transitioned", "job_id", job.ID, "status", job.Status, "rider_id", riderID)
	s.recordEvent(ctx, job, eventType, riderID, proof)
	return job, nil
}
