package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/parser"
)

const availableJobsLimit = 5

// riderOutcome is what a rider command produced: the reply to send and the
// entry for the command log.
type riderOutcome struct {
	reply   string
	jobID   string
	outcome string
}

func (s *Service) handleRiderCommand(ctx context.Context, msg domain.Message) error {
	rider, err := s.store.FindRiderByContact(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("failed to find rider: %w", err)
	}
	if rider == nil {
		return s.reply(ctx, msg.SenderID, riderNotRegisteredReply)
	}
	if rider.Status != "" && rider.Status != domain.RiderStatusActive {
		return s.reply(ctx, msg.SenderID, riderInactiveReply)
	}

	cmd := parser.ParseRiderCommand(msg.Text, msg.ImageRefs)
	out, err := s.runRiderCommand(ctx, rider, cmd)
	if err != nil {
		return err
	}

	s.logCommand(ctx, rider.ID, cmd.Kind, msg.Text, out)
	return s.reply(ctx, msg.SenderID, out.reply)
}

var usageReplies = map[domain.CommandKind]string{
	domain.CommandAccept:    acceptUsageReply,
	domain.CommandPickedUp:  pickupUsageReply,
	domain.CommandDelivered: deliverUsageReply,
}

func (s *Service) runRiderCommand(ctx context.Context, rider *domain.Rider, cmd parser.RiderCommand) (riderOutcome, error) {
	if cmd.NeedsJobID() && cmd.JobID == "" {
		return riderOutcome{reply: usageReplies[cmd.Kind], outcome: "missing_job_id"}, nil
	}

	switch cmd.Kind {
	case domain.CommandListJobs:
		jobs, err := s.store.ListOpenJobs(ctx, availableJobsLimit)
		if err != nil {
			return riderOutcome{}, fmt.Errorf("failed to list open jobs: %w", err)
		}
		if len(jobs) == 0 {
			return riderOutcome{reply: noJobsReply, outcome: "no_jobs"}, nil
		}
		return riderOutcome{reply: availableJobsReply(jobs), outcome: fmt.Sprintf("listed %d", len(jobs))}, nil

	case domain.CommandAccept:
		return s.riderTransition(ctx, cmd, func(job *domain.DeliveryJob) (*domain.DeliveryJob, error) {
			return s.AcceptJob(ctx, job.ID, rider.ID)
		}, jobAcceptedReply)

	case domain.CommandPickedUp:
		return s.riderTransition(ctx, cmd, func(job *domain.DeliveryJob) (*domain.DeliveryJob, error) {
			return s.PickupJob(ctx, job.ID, rider.ID)
		}, jobPickedUpReply)

	case domain.CommandDelivered:
		return s.riderTransition(ctx, cmd, func(job *domain.DeliveryJob) (*domain.DeliveryJob, error) {
			return s.DeliverJob(ctx, job.ID, rider.ID, cmd.Proof)
		}, jobDeliveredReply)

	case domain.CommandStatus:
		jobs, err := s.store.ListRiderActiveJobs(ctx, rider.ID)
		if err != nil {
			return riderOutcome{}, fmt.Errorf("failed to list active jobs: %w", err)
		}
		if len(jobs) == 0 {
			return riderOutcome{reply: noActiveJobsReply, outcome: "no_active_jobs"}, nil
		}
		return riderOutcome{reply: activeJobsReply(jobs), outcome: fmt.Sprintf("listed %d", len(jobs))}, nil

	default:
		return riderOutcome{reply: riderHelpReply, outcome: "help"}, nil
	}
}

// riderTransition resolves the job reference in cmd, applies fn and turns
// the expected failures into replies. Only store errors are returned.
func (s *Service) riderTransition(
	ctx context.Context,
	cmd parser.RiderCommand,
	fn func(job *domain.DeliveryJob) (*domain.DeliveryJob, error),
	success func(job *domain.DeliveryJob) string,
) (riderOutcome, error) {
	job, err := s.ResolveJob(ctx, cmd.JobID)
	if err == nil {
		var updated *domain.DeliveryJob
		updated, err = fn(job)
		if err == nil {
			return riderOutcome{reply: success(updated), jobID: updated.ID, outcome: string(updated.Status)}, nil
		}
	}

	out := riderOutcome{jobID: cmd.JobID}
	if job != nil {
		out.jobID = job.ID
	}
	switch {
	case errors.Is(err, ErrAmbiguousJobID):
		out.reply, out.outcome = ambiguousJobReply(cmd.JobID), "ambiguous"
	case cmd.Kind == domain.CommandAccept && (errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobConflict)):
		out.reply, out.outcome = jobTakenReply, "conflict"
	case errors.Is(err, ErrJobNotFound):
		out.reply, out.outcome = jobNotFoundReply, "not_found"
	case errors.Is(err, ErrProofRequired):
		out.reply, out.outcome = proofRequiredReply(domain.ShortID(out.jobID)), "proof_required"
	case errors.Is(err, ErrTransitionDenied), errors.Is(err, ErrJobConflict):
		out.reply, out.outcome = transitionDeniedReply(domain.ShortID(out.jobID), statusLabel(cmd.Kind), err), "denied"
	default:
		return riderOutcome{}, err
	}
	return out, nil
}

func statusLabel(kind domain.CommandKind) string {
	switch kind {
	case domain.CommandPickedUp:
		return "picked up"
	case domain.CommandDelivered:
		return "delivered"
	default:
		return string(kind)
	}
}

func (s *Service) logCommand(ctx context.Context, riderID string, kind domain.CommandKind, raw string, out riderOutcome) {
	entry := &domain.CommandLog{
		ID:        "cmd_" + uuid.New().String()[:8],
		RiderID:   riderID,
		JobID:     out.jobID,
		Command:   kind,
		RawText:   raw,
		Outcome:   out.outcome,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCommandLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to log rider command", "rider_id", riderID, "error", err)
	}
}

// ListCommandLogs returns a rider's recent chat commands.
func (s *Service) ListCommandLogs(ctx context.Context, riderID string, limit int) ([]domain.CommandLog, error) {
	return s.store.ListCommandLogs(ctx, riderID, limit)
}
