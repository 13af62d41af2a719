package domain

import "time"

// DefaultCategory is assigned to drafts whose text names no category.
const DefaultCategory = "General"

// ProductUploadDraft is an unreviewed listing created from a chat message.
type ProductUploadDraft struct {
	ID                string       `json:"id"`
	SellerID          string       `json:"seller_id"`
	SenderID          string       `json:"sender_id"`
	RawText           string       `json:"raw_text"`
	ImageRefs         []string     `json:"image_refs"`
	ParsedTitle       string       `json:"parsed_title"`
	ParsedPrice       float64      `json:"parsed_price"`
	ParsedDescription string       `json:"parsed_description"`
	ParsedCategory    string       `json:"parsed_category"`
	Status            UploadStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
}

// CommandLog records one rider command handled over chat.
type CommandLog struct {
	ID        string      `json:"id"`
	RiderID   string      `json:"rider_id"`
	JobID     string      `json:"job_id,omitempty"`
	Command   CommandKind `json:"command"`
	RawText   string      `json:"raw_text"`
	Outcome   string      `json:"outcome"`
	CreatedAt time.Time   `json:"created_at"`
}
