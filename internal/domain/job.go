package domain

import (
	"encoding/json"
	"time"
)

// JobIDPrefixLen is the number of id characters shown to riders in chat.
const JobIDPrefixLen = 8

// DeliveryJob represents one delivery task.
type DeliveryJob struct {
	ID              string     `json:"id"`
	SellerID        string     `json:"seller_id,omitempty"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	BuyerContact    string     `json:"buyer_contact,omitempty"`
	QuotedFee       float64    `json:"quoted_fee"`
	DeliveryNote    string     `json:"delivery_note,omitempty"`
	Status          JobStatus  `json:"status"`
	RiderID         *string    `json:"rider_id,omitempty"`
	AcceptAttempts  int        `json:"accept_attempts"`
	ProofPhoto      string     `json:"proof_photo,omitempty"`
	ProofOTP        string     `json:"proof_otp,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt      *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// ShortID returns the id prefix used in chat replies.
func (j *DeliveryJob) ShortID() string {
	return ShortID(j.ID)
}

// ShortID truncates an id to JobIDPrefixLen characters.
func ShortID(id string) string {
	if len(id) <= JobIDPrefixLen {
		return id
	}
	return id[:JobIDPrefixLen]
}

// DeliveryProof is the evidence a rider attaches when marking a job delivered.
// Either field is enough.
type DeliveryProof struct {
	Photo string `json:"photo,omitempty"`
	OTP   string `json:"otp,omitempty"`
}

// Empty reports whether no proof was supplied.
func (p DeliveryProof) Empty() bool {
	return p.Photo == "" && p.OTP == ""
}

// JobEvent is an entry in a job's history.
type JobEvent struct {
	EventID string          `json:"event_id"`
	JobID   string          `json:"job_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JobEventPayload is the payload recorded for job transitions.
type JobEventPayload struct {
	JobID   string         `json:"job_id"`
	RiderID string         `json:"rider_id,omitempty"`
	Status  JobStatus      `json:"status"`
	Proof   *DeliveryProof `json:"proof,omitempty"`
}

// JobFilter narrows a job listing.
type JobFilter struct {
	Statuses   []JobStatus
	RiderID    string
	Unassigned bool
	Limit      int
}
