package domain

import (
	"encoding/json"
	"time"
)

// Session is the conversation record kept for one WhatsApp sender.
type Session struct {
	ID             string          `json:"id"`
	SenderID       string          `json:"sender_id"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	State          json.RawMessage `json:"state,omitempty"`
}

// Seller is a registered marketplace seller.
type Seller struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	WhatsApp string `json:"whatsapp" yaml:"whatsapp"`
}

// Rider is a registered delivery rider.
type Rider struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	WhatsApp string      `json:"whatsapp" yaml:"whatsapp"`
	Status   RiderStatus `json:"status" yaml:"status"`
}
