package broker

import "time"

// Envelope wraps every message published to the exchange.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Meta describes an envelope.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	Producer      string    `json:"producer"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
}
