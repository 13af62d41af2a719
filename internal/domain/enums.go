// Package domain defines the core records of the WhatsApp command router.
package domain

// JobStatus represents the status of a delivery job.
type JobStatus string

const (
	JobStatusRequested JobStatus = "requested"
	JobStatusAccepted  JobStatus = "accepted"
	JobStatusPickedUp  JobStatus = "picked_up"
	JobStatusDelivered JobStatus = "delivered"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusRequested, JobStatusAccepted, JobStatusPickedUp,
		JobStatusDelivered, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// UploadStatus represents the review status of a product upload draft.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusPublished UploadStatus = "published"
	UploadStatusRejected  UploadStatus = "rejected"
)

// RiderStatus represents the account status of a rider.
type RiderStatus string

const (
	RiderStatusPending   RiderStatus = "pending"
	RiderStatusActive    RiderStatus = "active"
	RiderStatusSuspended RiderStatus = "suspended"
)

// EventType represents the type of a job event.
type EventType string

const (
	EventTypeJobCreated        EventType = "job_created"
	EventTypeJobAccepted       EventType = "job_accepted"
	EventTypeJobAcceptConflict EventType = "job_accept_conflict"
	EventTypeJobPickedUp       EventType = "job_picked_up"
	EventTypeJobDelivered      EventType = "job_delivered"
	EventTypeJobCompleted      EventType = "job_completed"
)

// JobAction is a transition requested against a delivery job.
type JobAction string

const (
	JobActionAccept   JobAction = "accept"
	JobActionPickup   JobAction = "pickup"
	JobActionDeliver  JobAction = "deliver"
	JobActionComplete JobAction = "complete"
)

// MessageType is the variant of an inbound chat message.
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeImage   MessageType = "image"
	MessageTypeUnknown MessageType = "unknown"
)

// CommandKind identifies a parsed rider command.
type CommandKind string

const (
	CommandListJobs     CommandKind = "list_jobs"
	CommandAccept       CommandKind = "accept"
	CommandStatus       CommandKind = "status"
	CommandPickedUp     CommandKind = "picked_up"
	CommandDelivered    CommandKind = "delivered"
	CommandUnrecognized CommandKind = "unrecognized"
)

// Route is the branch chosen by the message classifier.
type Route string

const (
	RouteProductUpload Route = "product_upload"
	RouteRiderCommand  Route = "rider_command"
	RouteWelcome       Route = "welcome"
)
