// Package repository defines the record store used by the router and its
// SQLite implementation.
package repository

import (
	"context"
	"time"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// Store defines the interface for data persistence.
//
// Lookups return (nil, nil) when the record does not exist. Conditional
// writes return false when the guard did not match.
type Store interface {
	// Session operations
	GetOrCreateSession(ctx context.Context, senderID string) (*domain.Session, error)
	TouchSession(ctx context.Context, sessionID string) error

	// Account operations
	FindSellerByContact(ctx context.Context, contact string) (*domain.Seller, error)
	FindRiderByContact(ctx context.Context, contact string) (*domain.Rider, error)
	GetRider(ctx context.Context, riderID string) (*domain.Rider, error)
	UpsertSeller(ctx context.Context, seller *domain.Seller) error
	UpsertRider(ctx context.Context, rider *domain.Rider) error

	// Product upload operations
	InsertProductDraft(ctx context.Context, draft *domain.ProductUploadDraft) error
	ListProductDrafts(ctx context.Context, sellerID string, status domain.UploadStatus, limit int) ([]domain.ProductUploadDraft, error)

	// Delivery job operations
	CreateJob(ctx context.Context, job *domain.DeliveryJob) error
	GetJob(ctx context.Context, jobID string) (*domain.DeliveryJob, error)
	FindJobsByPrefix(ctx context.Context, prefix string, limit int) ([]domain.DeliveryJob, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.DeliveryJob, error)
	ListOpenJobs(ctx context.Context, limit int) ([]domain.DeliveryJob, error)
	ListRiderActiveJobs(ctx context.Context, riderID string) ([]domain.DeliveryJob, error)
	ConditionalAcceptJob(ctx context.Context, jobID, riderID string, at time.Time) (bool, error)
	UpdateJobStatus(ctx context.Context, update JobStatusUpdate) (bool, error)

	// Job event operations
	CreateJobEvent(ctx context.Context, event *domain.JobEvent) error
	GetJobEvents(ctx context.Context, jobID string, limit int) ([]domain.JobEvent, error)

	// Rider command log
	CreateCommandLog(ctx context.Context, entry *domain.CommandLog) error
	ListCommandLogs(ctx context.Context, riderID string, limit int) ([]domain.CommandLog, error)

	// Lifecycle
	Close() error
}

// JobStatusUpdate is a guarded forward transition. The write applies only
// while the job is still in From. With RequireRider the job must also still be
// assigned to RiderID, and an empty RiderID is rejected.
type JobStatusUpdate struct {
	JobID        string
	From         domain.JobStatus
	To           domain.JobStatus
	RiderID      string
	RequireRider bool
	Proof        *domain.DeliveryProof
	At           time.Time
}
